package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"socialnet/internal/model"
)

const commentSelect = `
	SELECT c.id, c.post_id, c.creator_id, c.text, c.created_at, c.updated_at,
	       u.id AS "creator.id", u.user_name AS "creator.user_name", u.profile_image AS "creator.profile_image",
	       COALESCE((SELECT array_agg(cl.user_id ORDER BY cl.created_at, cl.user_id)
	                 FROM comment_likes cl WHERE cl.comment_id = c.id), '{}') AS likes
	FROM comments c
	JOIN users u ON u.id = c.creator_id
`

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment; post and creator come from the route and the session.
func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `
		INSERT INTO comments (post_id, creator_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query, c.PostID, c.CreatorID, c.Text)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrPostNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	if c.Likes == nil {
		c.Likes = pq.Int64Array{}
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	var c model.Comment
	err := r.db.GetContext(ctx, &c, commentSelect+` WHERE c.id = $1`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (r *commentRepository) Update(ctx context.Context, commentID int64, text string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET text = $1, updated_at = NOW() WHERE id = $2`, text, commentID)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return expectAffected(result, model.ErrCommentNotFound)
}

func (r *commentRepository) Delete(ctx context.Context, commentID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectAffected(result, model.ErrCommentNotFound)
}

func (r *commentRepository) ToggleLike(ctx context.Context, commentID, userID int64) (bool, error) {
	liked, err := toggleMembership(ctx, r.db,
		`DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`,
		`INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2) ON CONFLICT (comment_id, user_id) DO NOTHING`,
		commentID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, model.ErrCommentNotFound
		}
		return false, fmt.Errorf("toggle comment like: %w", err)
	}
	return liked, nil
}

// ListByPostIDs batch-loads comments for many posts (oldest first within a post).
func (r *commentRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error) {
	if len(postIDs) == 0 {
		return map[int64][]model.Comment{}, nil
	}

	query := commentSelect + ` WHERE c.post_id = ANY($1) ORDER BY c.created_at ASC, c.id ASC`
	var comments []model.Comment
	if err := r.db.SelectContext(ctx, &comments, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("list comments by posts: %w", err)
	}

	return lo.GroupBy(comments, func(c model.Comment) int64 { return c.PostID }), nil
}

func (r *commentRepository) ListByCreator(ctx context.Context, userID int64) ([]model.Comment, error) {
	query := commentSelect + ` WHERE c.creator_id = $1 ORDER BY c.created_at DESC, c.id DESC`
	comments := []model.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, userID); err != nil {
		return nil, fmt.Errorf("list comments by user: %w", err)
	}
	return comments, nil
}
