package edu

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the activation status of an account
type UserStatus string

const (
	// UserStatusInactive is the status of every new account
	UserStatusInactive UserStatus = "INACTIVE"
	// UserStatusActive is reached through OTP verification
	UserStatusActive UserStatus = "ACTIVE"
)

// User is the account model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name           string     `bun:"name,notnull" json:"name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	Role           UserRole   `bun:"role,notnull" json:"role,omitempty"`
	Status         UserStatus `bun:"status,notnull" json:"status,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	ActivatedAt    *time.Time `bun:"activated_at,nullzero" json:"activated_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus defaults an empty status to inactive.
func (u *User) EnsureStatus() {
	if u == nil {
		return
	}
	if u.Status == "" {
		u.Status = UserStatusInactive
	}
}

// IsActive reports whether the account finished OTP verification.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// Public returns the projection of the account safe to embed in
// other resources.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Course is a course published by an instructor
type Course struct {
	bun.BaseModel `bun:"table:courses,alias:crs"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title"`
	Description   string     `bun:"description,notnull" json:"description"`
	Price         float64    `bun:"price,notnull" json:"price"`
	InstructorID  uuid.UUID  `bun:"instructor_id,notnull,type:uuid" json:"instructor_id"`
	Instructor    *User      `bun:"rel:belongs-to,join:instructor_id=id" json:"instructor,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// OwnedBy reports whether the course belongs to the given account id.
func (c *Course) OwnedBy(id string) bool {
	if c == nil || id == "" {
		return false
	}
	return c.InstructorID.String() == id
}
