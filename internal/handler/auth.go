package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"socialnet/internal/httputil"
	"socialnet/internal/model"
	"socialnet/internal/service"
	"socialnet/internal/transport/http/middleware"
)

// Accounts is the account side of the user service.
type Accounts interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, req *model.ChangePasswordRequest) error
}

// Sessions issues and revokes session tokens.
type Sessions interface {
	IssueToken(userID int64) (string, model.Session, error)
	Revoke(ctx context.Context, session model.Session) error
}

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	accounts     Accounts
	sessions     Sessions
	secureCookie bool
	log          *zap.Logger
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(accounts Accounts, sessions Sessions, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		sessions:     sessions,
		secureCookie: secureCookie,
		log:          log,
	}
}

// Register handles sign-up. Accepts JSON or multipart with an optional profileImage part.
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest

	if isMultipart(r) {
		if !parseProfileForm(w, r) {
			return
		}
		req = model.RegisterRequest{
			UserName:        r.FormValue("userName"),
			Email:           r.FormValue("email"),
			Password:        r.FormValue("password"),
			ConfirmPassword: r.FormValue("confirmPassword"),
			Gender:          formString(r, "gender"),
			Description:     formString(r, "description"),
			City:            formString(r, "city"),
			Country:         formString(r, "country"),
		}
	} else if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	req.UserName = strings.TrimSpace(req.UserName)
	if !httputil.BindValid(w, &req) {
		return
	}

	image, err := profileImageSource(r, req.ProfileImage)
	if err != nil {
		if !writeMediaError(w, err, "Failed to upload profile image") {
			internalError(w, h.log, "failed to read profile image", err)
		}
		return
	}
	req.Image = image

	user, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteConflict(w, "User already exists")
		case isMediaError(err):
			writeMediaError(w, err, "Failed to upload profile image")
		default:
			internalError(w, h.log, "register failed", err)
		}
		return
	}

	httputil.WriteCreated(w, "User created successfully", user)
}

// Login handles user login
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		internalError(w, h.log, "login failed", err)
		return
	}

	token, session, err := h.sessions.IssueToken(user.ID)
	if err != nil {
		internalError(w, h.log, "failed to issue token", err, zap.Int64("user_id", user.ID))
		return
	}

	http.SetCookie(w, sessionCookie(token, session.ExpiresAt, h.secureCookie))
	httputil.WriteOK(w, "User logged in", token)
}

// Logout clears the session cookie and revokes the token when a denylist is configured.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session, ok := middleware.SessionFromContext(r.Context()); ok {
		if err := h.sessions.Revoke(r.Context(), session); err != nil {
			internalError(w, h.log, "failed to revoke token", err)
			return
		}
	}

	clearSessionCookie(w, h.secureCookie)
	httputil.WriteOK(w, "User logged out", nil)
}

// ChangePassword handles PATCH /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var req model.ChangePasswordRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), actor.UserID, &req); err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidCurrentPassword):
			httputil.WriteUnauthorized(w, "Unauthorized! Invalid current password")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			internalError(w, h.log, "change password failed", err, zap.Int64("user_id", actor.UserID))
		}
		return
	}

	httputil.WriteOK(w, "Password changed successfully", nil)
}

// parseProfileForm parses a multipart body capped at the avatar limit plus form overhead.
func parseProfileForm(w http.ResponseWriter, r *http.Request) bool {
	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteBadRequest(w, "Image exceeds size limit")
			return false
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return false
	}
	return true
}

// formString returns a multipart value, or nil when the field was not sent or is blank.
func formString(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 || values[0] == "" {
		return nil
	}
	return &values[0]
}

// profileImageSource reads the profileImage file part, falling back to a data URI or URL string.
func profileImageSource(r *http.Request, raw string) (*model.ImageSource, error) {
	if r.MultipartForm != nil {
		file, header, err := r.FormFile("profileImage")
		if err == nil {
			defer file.Close()
			return service.ImageSourceFromMultipart(file, header, model.MaxAvatarSizeBytes)
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, model.ErrInvalidImage
		}
		raw = r.FormValue("profileImage")
	}

	if raw == "" {
		return nil, nil
	}
	return service.ParseImageSource(raw)
}
