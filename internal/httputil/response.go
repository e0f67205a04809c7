package httputil

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in the "code" field of error responses.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUploadFailed = "UPLOAD_FAILED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// MsgInternal is the only message a client sees for unexpected failures.
const MsgInternal = "Internal server error"

// Response is the success envelope: {"message": "...", "data": ...}.
type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the failure envelope. Errors is only set for validation failures.
type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// headers are already sent; nothing useful to do on encode failure
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteSuccess writes the success envelope.
func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, Response{Message: message, Data: data})
}

func WriteOK(w http.ResponseWriter, message string, data interface{}) {
	WriteSuccess(w, http.StatusOK, message, data)
}

func WriteCreated(w http.ResponseWriter, message string, data interface{}) {
	WriteSuccess(w, http.StatusCreated, message, data)
}

// WriteError writes {"message": ..., "code": ...}.
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message, Code: code})
}

// WriteValidationErrors writes a 400 with per-field messages.
func WriteValidationErrors(w http.ResponseWriter, message string, fields map[string]string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Message: message,
		Code:    ErrCodeBadRequest,
		Errors:  fields,
	})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, ErrCodeConflict, message)
}

// WriteUploadFailed writes a 500 for media storage failures.
func WriteUploadFailed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeUploadFailed, message)
}

func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, MsgInternal)
}
