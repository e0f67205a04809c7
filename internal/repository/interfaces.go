package repository

import (
	"context"

	"socialnet/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateProfile(ctx context.Context, id int64, changes model.ProfileChanges) (*model.User, error)
	// DeleteCascade removes a non-admin user and everything that references it in one transaction.
	DeleteCascade(ctx context.Context, id int64) (*model.DeletedUser, error)
}

type GraphRepository interface {
	// Follow inserts the edge; false means it already existed.
	Follow(ctx context.Context, followerID, followeeID int64) (bool, error)
	// Unfollow removes the edge; false means there was none.
	Unfollow(ctx context.Context, followerID, followeeID int64) (bool, error)
	// Block records the block and severs follow edges in both directions; false means already blocked.
	Block(ctx context.Context, blockerID, blockedID int64) (bool, error)
	// Unblock lifts the block and restores edges per policy; false means there was no block.
	Unblock(ctx context.Context, blockerID, blockedID int64, policy model.UnblockPolicy) (bool, error)
	Followers(ctx context.Context, userID int64) ([]model.UserSummary, error)
	Following(ctx context.Context, userID int64) ([]model.UserSummary, error)
	Blocked(ctx context.Context, userID int64) ([]model.UserSummary, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	Update(ctx context.Context, postID int64, changes model.PostChanges) error
	Delete(ctx context.Context, postID int64) error
	// ToggleLike flips the user's membership in the like-set and reports the new state.
	ToggleLike(ctx context.Context, postID, userID int64) (bool, error)
	Timeline(ctx context.Context, userID int64, q model.TimelineQuery) ([]model.Post, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	Update(ctx context.Context, commentID int64, text string) error
	Delete(ctx context.Context, commentID int64) error
	ToggleLike(ctx context.Context, commentID, userID int64) (bool, error)
	ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error)
	ListByCreator(ctx context.Context, userID int64) ([]model.Comment, error)
}
