package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"socialnet/internal/httputil"
	"socialnet/internal/model"
)

// Comments is the comment service as seen by HTTP.
type Comments interface {
	Create(ctx context.Context, actor model.Identity, postID int64, text string) (*model.Comment, error)
	Update(ctx context.Context, actor model.Identity, postID, commentID int64, text string) (*model.Comment, error)
	ToggleLike(ctx context.Context, actor model.Identity, postID, commentID int64) (*model.Comment, bool, error)
	Delete(ctx context.Context, actor model.Identity, postID, commentID int64) error
	ListForUser(ctx context.Context, viewer model.Identity, userID int64) ([]model.Comment, error)
}

type CommentHandler struct {
	comments Comments
	log      *zap.Logger
}

func NewCommentHandler(comments Comments, log *zap.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		log:      log,
	}
}

// Create handles POST /posts/{postId}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postId", "Post not found")
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if !bindCommentText(w, r, &req) {
		return
	}

	comment, err := h.comments.Create(r.Context(), actor, postID, req.Text)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		internalError(w, h.log, "create comment failed", err, zap.Int64("post_id", postID))
		return
	}

	httputil.WriteCreated(w, "Comment created", comment)
}

// Update handles PATCH /posts/{postId}/comments/{id}/update
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, postID, commentID, ok := h.commentTarget(w, r)
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if !bindCommentText(w, r, &req) {
		return
	}

	comment, err := h.comments.Update(r.Context(), actor, postID, commentID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrNotCommentOwner):
			httputil.WriteForbidden(w, "You can only update your own comment")
		default:
			internalError(w, h.log, "update comment failed", err, zap.Int64("comment_id", commentID))
		}
		return
	}

	httputil.WriteOK(w, "Comment updated", comment)
}

// ToggleLike handles PUT /posts/{postId}/comments/{id}/like
func (h *CommentHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	actor, postID, commentID, ok := h.commentTarget(w, r)
	if !ok {
		return
	}

	comment, liked, err := h.comments.ToggleLike(r.Context(), actor, postID, commentID)
	if err != nil {
		if errors.Is(err, model.ErrCommentNotFound) {
			httputil.WriteNotFound(w, "Comment not found")
			return
		}
		internalError(w, h.log, "toggle comment like failed", err, zap.Int64("comment_id", commentID))
		return
	}

	msg := "Comment disliked"
	if liked {
		msg = "Comment liked"
	}
	httputil.WriteOK(w, msg, comment)
}

// Delete handles DELETE /posts/{postId}/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, postID, commentID, ok := h.commentTarget(w, r)
	if !ok {
		return
	}

	if err := h.comments.Delete(r.Context(), actor, postID, commentID); err != nil {
		switch {
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrNotCommentOwner):
			httputil.WriteForbidden(w, "You can only delete your own comment")
		default:
			internalError(w, h.log, "delete comment failed", err, zap.Int64("comment_id", commentID))
		}
		return
	}

	httputil.WriteOK(w, "Comment deleted", nil)
}

// ListForUser handles GET /posts/{postId}/comments/{userId}/user-comments
func (h *CommentHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	viewer, ok := identity(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId", "User not found")
	if !ok {
		return
	}

	comments, err := h.comments.ListForUser(r.Context(), viewer, userID)
	if err != nil {
		if errors.Is(err, model.ErrCommentsNotVisible) {
			httputil.WriteForbidden(w, "You can only view your own comments")
			return
		}
		internalError(w, h.log, "list comments failed", err, zap.Int64("user_id", userID))
		return
	}

	httputil.WriteOK(w, "Comments fetched successfully", comments)
}

func (h *CommentHandler) commentTarget(w http.ResponseWriter, r *http.Request) (model.Identity, int64, int64, bool) {
	actor, ok := identity(w, r)
	if !ok {
		return model.Identity{}, 0, 0, false
	}
	postID, ok := pathID(w, r, "postId", "Post not found")
	if !ok {
		return model.Identity{}, 0, 0, false
	}
	commentID, ok := pathID(w, r, "id", "Comment not found")
	if !ok {
		return model.Identity{}, 0, 0, false
	}
	return actor, postID, commentID, true
}

// bindCommentText decodes the body and rejects whitespace-only text.
func bindCommentText(w http.ResponseWriter, r *http.Request, req *model.CreateCommentRequest) bool {
	if !httputil.BindJSON(w, r, req) {
		return false
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		httputil.WriteValidationErrors(w, "Validation failed", map[string]string{"text": "text is required"})
		return false
	}
	return true
}
