package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"socialnet/internal/model"
	"socialnet/internal/repository"
)

// CommentService handles comments nested under posts.
type CommentService struct {
	comments repository.CommentRepository
	log      *zap.Logger
}

func NewCommentService(comments repository.CommentRepository, log *zap.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		log:      log,
	}
}

func (s *CommentService) Create(ctx context.Context, actor model.Identity, postID int64, text string) (*model.Comment, error) {
	c := &model.Comment{
		PostID:    postID,
		CreatorID: actor.UserID,
		Text:      strings.TrimSpace(text),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, c.ID)
}

// Update edits the text. Only the creator may update.
func (s *CommentService) Update(ctx context.Context, actor model.Identity, postID, commentID int64, text string) (*model.Comment, error) {
	c, err := s.load(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if c.CreatorID != actor.UserID {
		return nil, model.ErrNotCommentOwner
	}

	if err := s.comments.Update(ctx, commentID, strings.TrimSpace(text)); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, commentID)
}

func (s *CommentService) ToggleLike(ctx context.Context, actor model.Identity, postID, commentID int64) (*model.Comment, bool, error) {
	if _, err := s.load(ctx, postID, commentID); err != nil {
		return nil, false, err
	}

	liked, err := s.comments.ToggleLike(ctx, commentID, actor.UserID)
	if err != nil {
		return nil, false, err
	}

	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, false, err
	}
	return c, liked, nil
}

// Delete removes the comment. Creator or admin only.
func (s *CommentService) Delete(ctx context.Context, actor model.Identity, postID, commentID int64) error {
	c, err := s.load(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if !actor.CanModify(c.CreatorID) {
		return model.ErrNotCommentOwner
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	s.log.Debug("comment deleted", zap.Int64("comment_id", commentID), zap.Int64("actor_id", actor.UserID))
	return nil
}

// ListForUser returns the comments written by userID. Users can only list their own.
func (s *CommentService) ListForUser(ctx context.Context, viewer model.Identity, userID int64) ([]model.Comment, error) {
	if viewer.UserID != userID {
		return nil, model.ErrCommentsNotVisible
	}
	return s.comments.ListByCreator(ctx, userID)
}

// load fetches a comment and checks it belongs to postID.
func (s *CommentService) load(ctx context.Context, postID, commentID int64) (*model.Comment, error) {
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.PostID != postID {
		return nil, model.ErrCommentNotFound
	}
	return c, nil
}
