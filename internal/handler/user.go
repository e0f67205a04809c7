package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"socialnet/internal/httputil"
	"socialnet/internal/model"
)

// Profiles is the profile side of the user service.
type Profiles interface {
	GetProfile(ctx context.Context, viewer model.Identity, id int64) (*model.Profile, error)
	UpdateProfile(ctx context.Context, actor model.Identity, targetID int64, req *model.UpdateProfileRequest) (*model.User, error)
	Delete(ctx context.Context, actor model.Identity, targetID int64) error
}

// Graph manages follow and block edges.
type Graph interface {
	Follow(ctx context.Context, actor model.Identity, targetID int64) error
	Unfollow(ctx context.Context, actor model.Identity, targetID int64) error
	Block(ctx context.Context, actor model.Identity, targetID int64) error
	Unblock(ctx context.Context, actor model.Identity, targetID int64) error
	BlockedUsers(ctx context.Context, actor model.Identity) ([]model.UserSummary, error)
}

type UserHandler struct {
	profiles     Profiles
	graph        Graph
	secureCookie bool
	log          *zap.Logger
}

func NewUserHandler(profiles Profiles, graph Graph, secureCookie bool, log *zap.Logger) *UserHandler {
	return &UserHandler{
		profiles:     profiles,
		graph:        graph,
		secureCookie: secureCookie,
		log:          log,
	}
}

// GetProfile handles GET /users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewer, ok := identity(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "id", "User not found")
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), viewer, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		internalError(w, h.log, "get profile failed", err, zap.Int64("user_id", userID))
		return
	}

	httputil.WriteOK(w, "User fetched", profile)
}

// UpdateProfile handles PATCH /users/{id}/update. Accepts JSON or multipart.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "id", "User not found")
	if !ok {
		return
	}
	if actor.UserID != userID {
		httputil.WriteForbidden(w, "You can only update your own profile")
		return
	}

	var req model.UpdateProfileRequest
	if isMultipart(r) {
		if !parseProfileForm(w, r) {
			return
		}
		req = model.UpdateProfileRequest{
			UserName:    formString(r, "userName"),
			Gender:      formString(r, "gender"),
			Description: formString(r, "description"),
			City:        formString(r, "city"),
			Country:     formString(r, "country"),
		}
	} else if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, httputil.ErrEmptyBody) {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.UserName != nil {
		req.UserName = lo.ToPtr(strings.TrimSpace(*req.UserName))
	}
	if !httputil.BindValid(w, &req) {
		return
	}

	raw := ""
	if req.ProfileImage != nil {
		raw = *req.ProfileImage
	}
	image, err := profileImageSource(r, raw)
	if err != nil {
		if !writeMediaError(w, err, "Unable to upload profile image") {
			internalError(w, h.log, "failed to read profile image", err)
		}
		return
	}
	req.Image = image

	user, err := h.profiles.UpdateProfile(r.Context(), actor, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotProfileOwner):
			httputil.WriteForbidden(w, "You can only update your own profile")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case isMediaError(err):
			writeMediaError(w, err, "Unable to upload profile image")
		default:
			internalError(w, h.log, "update profile failed", err, zap.Int64("user_id", userID))
		}
		return
	}

	httputil.WriteOK(w, "User updated", user)
}

// Delete handles DELETE /users/{id}. Admin accounts are reported as not found.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "id", "User not found or is admin")
	if !ok {
		return
	}

	if err := h.profiles.Delete(r.Context(), actor, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrCannotDeleteUser):
			httputil.WriteForbidden(w, "You can only delete your own account")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found or is admin")
		default:
			internalError(w, h.log, "delete user failed", err, zap.Int64("user_id", userID))
		}
		return
	}

	if actor.UserID == userID {
		clearSessionCookie(w, h.secureCookie)
	}
	httputil.WriteOK(w, fmt.Sprintf("User with ID %d deleted", userID), nil)
}

// Follow handles PUT /users/{id}/follow
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.graphAction(w, r, "follow", h.graph.Follow, "User followed successfully")
}

// Unfollow handles PUT /users/{id}/unfollow
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.graphAction(w, r, "unfollow", h.graph.Unfollow, "User unfollowed successfully")
}

// Block handles PUT /users/{id}/block
func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.graphAction(w, r, "block", h.graph.Block, "User blocked successfully")
}

// Unblock handles PUT /users/{id}/unblock
func (h *UserHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.graphAction(w, r, "unblock", h.graph.Unblock, "User unblocked successfully")
}

// BlockedUsers handles GET /users/blocked-users
func (h *UserHandler) BlockedUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	users, err := h.graph.BlockedUsers(r.Context(), actor)
	if err != nil {
		if errors.Is(err, model.ErrNoBlockedUsers) {
			httputil.WriteNotFound(w, "No blocked users found")
			return
		}
		internalError(w, h.log, "list blocked users failed", err, zap.Int64("user_id", actor.UserID))
		return
	}

	httputil.WriteOK(w, "Blocked users fetched", users)
}

type graphOp func(ctx context.Context, actor model.Identity, targetID int64) error

func (h *UserHandler) graphAction(w http.ResponseWriter, r *http.Request, name string, op graphOp, okMsg string) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "id", "User not found")
	if !ok {
		return
	}

	if err := op(r.Context(), actor, targetID); err != nil {
		status, msg, known := graphErrorResponse(name, err)
		if !known {
			internalError(w, h.log, name+" failed", err,
				zap.Int64("actor_id", actor.UserID), zap.Int64("target_id", targetID))
			return
		}
		httputil.WriteError(w, status, codeFor(status), msg)
		return
	}

	httputil.WriteOK(w, okMsg, nil)
}

func graphErrorResponse(op string, err error) (int, string, bool) {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return http.StatusNotFound, "User not found", true
	case errors.Is(err, model.ErrCannotFollowSelf):
		return http.StatusForbidden, fmt.Sprintf("You cannot %s yourself", op), true
	case errors.Is(err, model.ErrAlreadyFollowing):
		return http.StatusBadRequest, "You are already following this user", true
	case errors.Is(err, model.ErrNotFollowing):
		return http.StatusBadRequest, "You are not following this user", true
	case errors.Is(err, model.ErrCannotBlock):
		return http.StatusForbidden, "You cannot block yourself or admin", true
	case errors.Is(err, model.ErrAlreadyBlocked):
		return http.StatusBadRequest, "You have already blocked this user", true
	case errors.Is(err, model.ErrCannotUnblockSelf):
		return http.StatusForbidden, "You cannot unblock yourself", true
	case errors.Is(err, model.ErrNotBlocked):
		return http.StatusBadRequest, "You have not blocked this user", true
	}
	return 0, "", false
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return httputil.ErrCodeBadRequest
	case http.StatusForbidden:
		return httputil.ErrCodeForbidden
	case http.StatusNotFound:
		return httputil.ErrCodeNotFound
	}
	return httputil.ErrCodeInternal
}
