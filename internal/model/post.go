package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Post represents a user's post with its like-set and comments.
type Post struct {
	ID        int64         `db:"id" json:"id"`
	CreatorID int64         `db:"creator_id" json:"-"`
	Text      string        `db:"text" json:"text"`
	ImageURL  *string       `db:"image_url" json:"imageUrl,omitempty"`
	ImageKey  *string       `db:"image_key" json:"-"`
	Likes     pq.Int64Array `db:"likes" json:"likes"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`

	// Joined fields (not in posts table)
	Creator  UserSummary `db:"creator" json:"creator"`
	Comments []Comment   `db:"-" json:"comments"`
}

// LikedBy reports whether userID is in the post's like-set.
func (p *Post) LikedBy(userID int64) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Text     string  `json:"text" validate:"required,max=1000"`
	ImageURL *string `json:"imageUrl"`
}

type UpdatePostRequest struct {
	Text     *string `json:"text" validate:"omitempty,min=1,max=1000"`
	ImageURL *string `json:"imageUrl"`
}

// PostChanges is what the repository persists for an update.
type PostChanges struct {
	Text     *string
	ImageURL *string
	ImageKey *string
}

// TimelineQuery pages the timeline newest-first; Before is an exclusive post id cursor.
// A zero Limit returns every matching post.
type TimelineQuery struct {
	Limit  int
	Before *int64
}

const (
	MaxPostTextLength = 1000
	MaxTimelineLimit  = 100
)

// Post errors
var (
	ErrPostNotFound     = errors.New("post not found")
	ErrNotPostOwner     = errors.New("not the owner of this post")
	ErrPostTextRequired = errors.New("post text is required")
)
