package models

import "time"

// Profile is the storefront view of an identity-provider user.
type Profile struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"fullName"`
	Email         string    `db:"email" json:"email"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	EmailVerified bool      `db:"email_verified" json:"emailVerified"`
	IsAdmin       bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// AdminUser grants back-office access to a user id.
type AdminUser struct {
	UserID    string    `db:"user_id" json:"userId"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
