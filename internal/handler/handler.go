package handler

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"socialnet/internal/httputil"
	"socialnet/internal/model"
	"socialnet/internal/service"
	"socialnet/internal/transport/http/middleware"
)

// pathID reads a positive numeric URL parameter. Anything else is answered
// with 404 since no resource can live under a malformed id.
func pathID(w http.ResponseWriter, r *http.Request, name, notFound string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteNotFound(w, notFound)
		return 0, false
	}
	return id, true
}

// identity returns the caller resolved by the auth middleware.
func identity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Invalid or expired token or you just not logged in")
		return model.Identity{}, false
	}
	return id, true
}

func internalError(w http.ResponseWriter, log *zap.Logger, msg string, err error, fields ...zap.Field) {
	log.Error(msg, append(fields, zap.Error(err))...)
	httputil.WriteInternalError(w)
}

func isMediaError(err error) bool {
	return service.IsMediaClientError(err) || errors.Is(err, model.ErrUploadFailed)
}

// writeMediaError answers image validation and upload failures. It reports false for unrelated errors.
func writeMediaError(w http.ResponseWriter, err error, uploadFailedMsg string) bool {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequest(w, "Image exceeds size limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequest(w, "Unsupported image type")
	case errors.Is(err, model.ErrInvalidImage):
		httputil.WriteBadRequest(w, "Image must be a data URI or an http(s) URL")
	case errors.Is(err, model.ErrUploadFailed):
		httputil.WriteUploadFailed(w, uploadFailedMsg)
	default:
		return false
	}
	return true
}

// sessionCookie builds the jwt cookie. An expired cookie clears it.
func sessionCookie(value string, expires time.Time, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteNoneMode,
	}
	if value == "" {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	}
	return c
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, sessionCookie("", time.Time{}, secure))
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
