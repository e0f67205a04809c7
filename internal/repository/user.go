package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"socialnet/internal/model"
)

const pqUniqueViolation = "23505"

const userColumns = `id, user_name, email, password_hash, is_admin, gender, description, city, country,
		       profile_image, profile_image_key, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (user_name, email, password_hash, gender, description, city, country,
		                   profile_image, profile_image_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, is_admin, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.UserName,
		u.Email,
		u.PasswordHash,
		u.Gender,
		u.Description,
		u.City,
		u.Country,
		u.ProfileImage,
		u.ProfileImageKey,
	)

	err := row.Scan(&u.ID, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByEmail retrieves a user by email (case-insensitive)
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &u, nil
}

// ExistsByEmail checks if an email is already registered
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// UpdateProfile applies the non-nil fields of changes and returns the updated row.
func (r *userRepository) UpdateProfile(ctx context.Context, id int64, changes model.ProfileChanges) (*model.User, error) {
	query := `
		UPDATE users SET
			user_name         = COALESCE($1, user_name),
			gender            = COALESCE($2, gender),
			description       = COALESCE($3, description),
			city              = COALESCE($4, city),
			country           = COALESCE($5, country),
			profile_image     = COALESCE($6, profile_image),
			profile_image_key = CASE WHEN $6::text IS NULL THEN profile_image_key ELSE $7 END,
			updated_at        = NOW()
		WHERE id = $8
		RETURNING ` + userColumns

	var u model.User
	err := r.db.GetContext(ctx, &u, query,
		changes.UserName,
		changes.Gender,
		changes.Description,
		changes.City,
		changes.Country,
		changes.ProfileImage,
		changes.ProfileImageKey,
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &u, nil
}

// DeleteCascade deletes a non-admin user. Follow edges, blocks, likes, posts and comments
// go with it through ON DELETE CASCADE inside the same transaction. Object keys of the
// removed media are returned for cleanup.
func (r *userRepository) DeleteCascade(ctx context.Context, id int64) (*model.DeletedUser, error) {
	deleted := &model.DeletedUser{ID: id}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, `
			SELECT profile_image, profile_image_key
			FROM users
			WHERE id = $1 AND is_admin = FALSE
			FOR UPDATE
		`, id)
		if err := row.Scan(&deleted.ProfileImage, &deleted.ProfileImageKey); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		if err := tx.SelectContext(ctx, &deleted.PostImageKeys, `
			SELECT image_key FROM posts WHERE creator_id = $1 AND image_key IS NOT NULL
		`, id); err != nil {
			return fmt.Errorf("collect post images: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
