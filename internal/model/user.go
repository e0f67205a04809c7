package model

import (
	"errors"
	"time"
)

// User represents a user account. Relationship sets live in the follows and blocks tables.
type User struct {
	ID              int64     `db:"id" json:"id"`
	UserName        string    `db:"user_name" json:"userName"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	IsAdmin         bool      `db:"is_admin" json:"isAdmin"`
	Gender          *string   `db:"gender" json:"gender,omitempty"`
	Description     *string   `db:"description" json:"description,omitempty"`
	City            *string   `db:"city" json:"city,omitempty"`
	Country         *string   `db:"country" json:"country,omitempty"`
	ProfileImage    *string   `db:"profile_image" json:"profileImage"`
	ProfileImageKey *string   `db:"profile_image_key" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// Summary is the populated form used wherever another document references a user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, UserName: u.UserName, ProfileImage: u.ProfileImage}
}

// Profile is the public view of a user: no password hash, no update timestamp.
type Profile struct {
	ID           int64         `json:"id"`
	UserName     string        `json:"userName"`
	Email        string        `json:"email"`
	IsAdmin      bool          `json:"isAdmin"`
	Gender       *string       `json:"gender,omitempty"`
	Description  *string       `json:"description,omitempty"`
	City         *string       `json:"city,omitempty"`
	Country      *string       `json:"country,omitempty"`
	ProfileImage *string       `json:"profileImage"`
	Followers    []UserSummary `json:"followers"`
	Following    []UserSummary `json:"following"`
	BlockList    []int64       `json:"blockList,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	UserName        string  `json:"userName" validate:"required,min=3,max=20"`
	Email           string  `json:"email" validate:"required,email,max=254"`
	Password        string  `json:"password" validate:"required,min=8,max=20"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required,eqfield=Password"`
	Gender          *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Description     *string `json:"description" validate:"omitempty,min=3,max=200"`
	City            *string `json:"city" validate:"omitempty,max=50"`
	Country         *string `json:"country" validate:"omitempty,max=50"`
	ProfileImage    string  `json:"profileImage"`

	Image *ImageSource `json:"-"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=20"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// UpdateProfileRequest is a partial update; nil fields are left untouched.
type UpdateProfileRequest struct {
	UserName     *string `json:"userName" validate:"omitnil,min=3,max=20"`
	Gender       *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Description  *string `json:"description" validate:"omitempty,min=3,max=200"`
	City         *string `json:"city" validate:"omitempty,max=50"`
	Country      *string `json:"country" validate:"omitempty,max=50"`
	ProfileImage *string `json:"profileImage"`

	Image *ImageSource `json:"-"`
}

// IsEmpty reports whether the request changes nothing.
func (r *UpdateProfileRequest) IsEmpty() bool {
	return r.UserName == nil && r.Gender == nil && r.Description == nil &&
		r.City == nil && r.Country == nil && r.Image == nil
}

// ProfileChanges is what the repository persists for an update.
type ProfileChanges struct {
	UserName        *string
	Gender          *string
	Description     *string
	City            *string
	Country         *string
	ProfileImage    *string
	ProfileImageKey *string
}

// DeletedUser carries what a cascade delete leaves behind outside the database.
type DeletedUser struct {
	ID              int64
	ProfileImage    *string
	ProfileImageKey *string
	PostImageKeys   []string
}

// Identity is the authenticated caller, resolved once per request.
type Identity struct {
	UserID  int64
	IsAdmin bool
}

// CanModify reports whether the identity owns the resource or is an admin.
func (i Identity) CanModify(ownerID int64) bool {
	return i.UserID == ownerID || i.IsAdmin
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to register an already used email
	ErrEmailExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrInvalidCurrentPassword = errors.New("invalid current password")
	ErrNotProfileOwner        = errors.New("can only update own profile")
	ErrCannotDeleteUser       = errors.New("can only delete own account")
)
