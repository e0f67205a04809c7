package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"socialnet/internal/httputil"
	"socialnet/internal/model"
)

// Posts is the post service as seen by HTTP.
type Posts interface {
	Create(ctx context.Context, actor model.Identity, req *model.CreatePostRequest) (*model.Post, error)
	Update(ctx context.Context, actor model.Identity, postID int64, req *model.UpdatePostRequest) (*model.Post, error)
	ToggleLike(ctx context.Context, actor model.Identity, postID int64) (*model.Post, bool, error)
	Delete(ctx context.Context, actor model.Identity, postID int64) error
	Timeline(ctx context.Context, actor model.Identity, q model.TimelineQuery) ([]model.Post, error)
	GetOne(ctx context.Context, postID int64) (*model.Post, error)
}

type PostHandler struct {
	posts Posts
	log   *zap.Logger
}

func NewPostHandler(posts Posts, log *zap.Logger) *PostHandler {
	return &PostHandler{
		posts: posts,
		log:   log,
	}
}

// Create handles POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if !httputil.BindValid(w, &req) {
		return
	}

	post, err := h.posts.Create(r.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostTextRequired):
			httputil.WriteBadRequest(w, "Post text is required")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case isMediaError(err):
			writeMediaError(w, err, "Unable to upload image")
		default:
			internalError(w, h.log, "create post failed", err, zap.Int64("user_id", actor.UserID))
		}
		return
	}

	httputil.WriteCreated(w, "Post created", post)
}

// Update handles PATCH /posts/{id}/update
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "Post not found")
	if !ok {
		return
	}

	var req model.UpdatePostRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}

	post, err := h.posts.Update(r.Context(), actor, postID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You are not authorized to update this post")
		case errors.Is(err, model.ErrPostTextRequired):
			httputil.WriteBadRequest(w, "Post text is required")
		case isMediaError(err):
			writeMediaError(w, err, "Unable to upload image")
		default:
			internalError(w, h.log, "update post failed", err, zap.Int64("post_id", postID))
		}
		return
	}

	httputil.WriteOK(w, "Post updated", post)
}

// ToggleLike handles PUT /posts/{id}/like
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "Post not found")
	if !ok {
		return
	}

	post, liked, err := h.posts.ToggleLike(r.Context(), actor, postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		internalError(w, h.log, "toggle post like failed", err, zap.Int64("post_id", postID))
		return
	}

	msg := "Post disliked"
	if liked {
		msg = "Post liked"
	}
	httputil.WriteOK(w, msg, post)
}

// Delete handles DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "Post not found")
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), actor, postID); err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You are not authorized to delete this post")
		default:
			internalError(w, h.log, "delete post failed", err, zap.Int64("post_id", postID))
		}
		return
	}

	httputil.WriteOK(w, "Post deleted", nil)
}

// Timeline handles GET /posts/timeline?limit=&before=
func (h *PostHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var q model.TimelineQuery
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		q.Limit = parsed
	}
	if b := r.URL.Query().Get("before"); b != "" {
		parsed, err := strconv.ParseInt(b, 10, 64)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid before parameter")
			return
		}
		q.Before = &parsed
	}

	posts, err := h.posts.Timeline(r.Context(), actor, q)
	if err != nil {
		internalError(w, h.log, "timeline failed", err, zap.Int64("user_id", actor.UserID))
		return
	}

	httputil.WriteOK(w, "Posts fetched", posts)
}

// GetOne handles GET /posts/{id}
func (h *PostHandler) GetOne(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "id", "Post not found")
	if !ok {
		return
	}

	post, err := h.posts.GetOne(r.Context(), postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		internalError(w, h.log, "get post failed", err, zap.Int64("post_id", postID))
		return
	}

	httputil.WriteOK(w, "Post fetched", post)
}
