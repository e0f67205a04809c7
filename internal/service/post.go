package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"socialnet/internal/model"
	"socialnet/internal/repository"
)

type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	media    MediaStore
	cleanup  MediaCleaner
	log      *zap.Logger
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	media MediaStore,
	cleanup MediaCleaner,
	log *zap.Logger,
) *PostService {
	return &PostService{
		posts:    posts,
		comments: comments,
		media:    media,
		cleanup:  cleanup,
		log:      log,
	}
}

// Create stores a post for the actor. An image URL or data URI is ingested first.
func (s *PostService) Create(ctx context.Context, actor model.Identity, req *model.CreatePostRequest) (*model.Post, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, model.ErrPostTextRequired
	}

	post := &model.Post{CreatorID: actor.UserID, Text: text}

	if raw := strings.TrimSpace(lo.FromPtr(req.ImageURL)); raw != "" {
		uploaded, err := s.ingest(ctx, raw)
		if err != nil {
			return nil, err
		}
		post.ImageURL = &uploaded.URL
		post.ImageKey = &uploaded.Key
	}

	if err := s.posts.Create(ctx, post); err != nil {
		enqueueCleanup(s.cleanup, reasonUploadAbandoned, lo.FromPtr(post.ImageKey))
		return nil, err
	}

	return s.GetOne(ctx, post.ID)
}

// Update edits text and/or image. Only the creator may update.
func (s *PostService) Update(ctx context.Context, actor model.Identity, postID int64, req *model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.CreatorID != actor.UserID {
		return nil, model.ErrNotPostOwner
	}

	var changes model.PostChanges
	if req.Text != nil {
		text := strings.TrimSpace(*req.Text)
		if text == "" {
			return nil, model.ErrPostTextRequired
		}
		changes.Text = &text
	}

	if raw := strings.TrimSpace(lo.FromPtr(req.ImageURL)); raw != "" {
		uploaded, err := s.ingest(ctx, raw)
		if err != nil {
			return nil, err
		}
		changes.ImageURL = &uploaded.URL
		changes.ImageKey = &uploaded.Key
	}

	if err := s.posts.Update(ctx, postID, changes); err != nil {
		enqueueCleanup(s.cleanup, reasonUploadAbandoned, lo.FromPtr(changes.ImageKey))
		return nil, err
	}

	if changes.ImageKey != nil {
		enqueueCleanup(s.cleanup, reasonImageReplaced, postImageKey(s.media, post))
	}

	return s.GetOne(ctx, postID)
}

// ToggleLike flips the actor's like and returns the refreshed post plus the new state.
func (s *PostService) ToggleLike(ctx context.Context, actor model.Identity, postID int64) (*model.Post, bool, error) {
	liked, err := s.posts.ToggleLike(ctx, postID, actor.UserID)
	if err != nil {
		return nil, false, err
	}

	post, err := s.GetOne(ctx, postID)
	if err != nil {
		return nil, false, err
	}
	return post, liked, nil
}

// Delete removes the post with its comments and likes. Creator or admin only.
func (s *PostService) Delete(ctx context.Context, actor model.Identity, postID int64) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !actor.CanModify(post.CreatorID) {
		return model.ErrNotPostOwner
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}

	enqueueCleanup(s.cleanup, reasonPostDeleted, postImageKey(s.media, post))
	s.log.Info("post deleted", zap.Int64("post_id", postID), zap.Int64("actor_id", actor.UserID))
	return nil
}

// Timeline returns posts by the actor, by followees and by followers, newest first.
func (s *PostService) Timeline(ctx context.Context, actor model.Identity, q model.TimelineQuery) ([]model.Post, error) {
	if q.Limit < 0 {
		q.Limit = 0
	}
	if q.Limit > model.MaxTimelineLimit {
		q.Limit = model.MaxTimelineLimit
	}

	posts, err := s.posts.Timeline(ctx, actor.UserID, q)
	if err != nil {
		return nil, err
	}
	if err := s.attachComments(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) GetOne(ctx context.Context, postID int64) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	posts := []model.Post{*post}
	if err := s.attachComments(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *PostService) attachComments(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := lo.Map(posts, func(p model.Post, _ int) int64 { return p.ID })
	byPost, err := s.comments.ListByPostIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}

	for i := range posts {
		posts[i].Comments = byPost[posts[i].ID]
		if posts[i].Comments == nil {
			posts[i].Comments = []model.Comment{}
		}
	}
	return nil
}

func (s *PostService) ingest(ctx context.Context, raw string) (*model.UploadResult, error) {
	src, err := ParseImageSource(raw)
	if err != nil {
		return nil, err
	}
	return s.media.Ingest(ctx, model.ImageKindPost, src)
}

func postImageKey(media MediaStore, post *model.Post) string {
	if k := lo.FromPtr(post.ImageKey); k != "" {
		return k
	}
	if post.ImageURL == nil {
		return ""
	}
	return media.KeyFromURL(*post.ImageURL)
}
