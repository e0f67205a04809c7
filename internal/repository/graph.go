package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"socialnet/internal/model"
)

// graphRepository stores the social graph: one row per follow edge, one row per block.
type graphRepository struct {
	db *sqlx.DB
}

func NewGraphRepository(db *sqlx.DB) GraphRepository {
	return &graphRepository{db: db}
}

func (r *graphRepository) Follow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to create follow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *graphRepository) Unfollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	result, err := r.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// Block severs follow edges in both directions and remembers which ones existed.
func (r *graphRepository) Block(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	inserted := false

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO blocks (blocker_id, blocked_id, severed_incoming, severed_outgoing)
			VALUES (
				$1, $2,
				EXISTS(SELECT 1 FROM follows WHERE follower_id = $2 AND followee_id = $1),
				EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)
			)
			ON CONFLICT (blocker_id, blocked_id) DO NOTHING
		`, blockerID, blockedID)
		if err != nil {
			return fmt.Errorf("insert block: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}
		inserted = true

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM follows
			WHERE (follower_id = $1 AND followee_id = $2) OR (follower_id = $2 AND followee_id = $1)
		`, blockedID, blockerID); err != nil {
			return fmt.Errorf("sever follows: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return inserted, nil
}

func (r *graphRepository) Unblock(ctx context.Context, blockerID, blockedID int64, policy model.UnblockPolicy) (bool, error) {
	removed := false

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var block model.Block
		err := tx.GetContext(ctx, &block, `
			DELETE FROM blocks
			WHERE blocker_id = $1 AND blocked_id = $2
			RETURNING blocker_id, blocked_id, severed_incoming, severed_outgoing, created_at
		`, blockerID, blockedID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("delete block: %w", err)
		}
		removed = true

		for _, edge := range block.RestoredEdges(policy) {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO follows (follower_id, followee_id)
				VALUES ($1, $2)
				ON CONFLICT (follower_id, followee_id) DO NOTHING
			`, edge.FollowerID, edge.FolloweeID); err != nil {
				return fmt.Errorf("restore follow: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return removed, nil
}

func (r *graphRepository) Followers(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	query := `
		SELECT u.id, u.user_name, u.profile_image
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC
	`
	users := []model.UserSummary{}
	if err := r.db.SelectContext(ctx, &users, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return users, nil
}

func (r *graphRepository) Following(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	query := `
		SELECT u.id, u.user_name, u.profile_image
		FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
	`
	users := []model.UserSummary{}
	if err := r.db.SelectContext(ctx, &users, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return users, nil
}

func (r *graphRepository) Blocked(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	query := `
		SELECT u.id, u.user_name, u.profile_image
		FROM blocks b
		JOIN users u ON u.id = b.blocked_id
		WHERE b.blocker_id = $1
		ORDER BY b.created_at DESC
	`
	users := []model.UserSummary{}
	if err := r.db.SelectContext(ctx, &users, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get blocked users: %w", err)
	}
	return users, nil
}
