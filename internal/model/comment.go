package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Comment represents a comment on a post.
type Comment struct {
	ID        int64         `db:"id" json:"id"`
	PostID    int64         `db:"post_id" json:"post"`
	CreatorID int64         `db:"creator_id" json:"-"`
	Text      string        `db:"text" json:"text"`
	Likes     pq.Int64Array `db:"likes" json:"likes"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
	Creator   UserSummary   `db:"creator" json:"creator"` // Joined field
}

func (c *Comment) LikedBy(userID int64) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CreateCommentRequest is the request body for creating or updating a comment.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// Comment errors
var (
	ErrCommentNotFound    = errors.New("comment not found")
	ErrNotCommentOwner    = errors.New("not the owner of this comment")
	ErrCommentsNotVisible = errors.New("can only view own comments")
)
