package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"socialnet/internal/model"
)

const pqForeignKeyViolation = "23503"

// postSelect loads posts with their creator summary and like-set in one round trip.
const postSelect = `
	SELECT p.id, p.creator_id, p.text, p.image_url, p.image_key, p.created_at, p.updated_at,
	       u.id AS "creator.id", u.user_name AS "creator.user_name", u.profile_image AS "creator.profile_image",
	       COALESCE((SELECT array_agg(pl.user_id ORDER BY pl.created_at, pl.user_id)
	                 FROM post_likes pl WHERE pl.post_id = p.id), '{}') AS likes
	FROM posts p
	JOIN users u ON u.id = p.creator_id
`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post; the creator is fixed at insert time.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (creator_id, text, image_url, image_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query, post.CreatorID, post.Text, post.ImageURL, post.ImageKey)
	if err := row.Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("insert post: %w", err)
	}
	if post.Likes == nil {
		post.Likes = pq.Int64Array{}
	}
	return nil
}

// GetByID retrieves a single post with creator and likes. Comments are attached by the service.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	var post model.Post
	err := r.db.GetContext(ctx, &post, postSelect+` WHERE p.id = $1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, postID int64, changes model.PostChanges) error {
	query := `
		UPDATE posts SET
			text       = COALESCE($1, text),
			image_url  = COALESCE($2, image_url),
			image_key  = CASE WHEN $2::text IS NULL THEN image_key ELSE $3 END,
			updated_at = NOW()
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, changes.Text, changes.ImageURL, changes.ImageKey, postID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return expectAffected(result, model.ErrPostNotFound)
}

// Delete removes a post; its comments and likes cascade.
func (r *postRepository) Delete(ctx context.Context, postID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectAffected(result, model.ErrPostNotFound)
}

func (r *postRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, error) {
	liked, err := toggleMembership(ctx, r.db,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT (post_id, user_id) DO NOTHING`,
		postID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, model.ErrPostNotFound
		}
		return false, fmt.Errorf("toggle post like: %w", err)
	}
	return liked, nil
}

// Timeline returns posts by the user, the accounts they follow and their followers, newest first.
func (r *postRepository) Timeline(ctx context.Context, userID int64, q model.TimelineQuery) ([]model.Post, error) {
	query := postSelect + `
		WHERE (p.creator_id = $1
		    OR p.creator_id IN (SELECT followee_id FROM follows WHERE follower_id = $1)
		    OR p.creator_id IN (SELECT follower_id FROM follows WHERE followee_id = $1))
		  AND ($2::bigint IS NULL OR p.id < $2)
		ORDER BY p.created_at DESC, p.id DESC
	`
	args := []interface{}{userID, q.Before}
	if q.Limit > 0 {
		query += `LIMIT $3`
		args = append(args, q.Limit)
	}

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}
	return posts, nil
}

// toggleMembership deletes the (owner, user) row, inserting it instead when nothing was deleted.
func toggleMembership(ctx context.Context, db *sqlx.DB, deleteQuery, insertQuery string, ownerID, userID int64) (bool, error) {
	liked := false
	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, deleteQuery, ownerID, userID)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows > 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, insertQuery, ownerID, userID); err != nil {
			return err
		}
		liked = true
		return nil
	})
	return liked, err
}

func expectAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
