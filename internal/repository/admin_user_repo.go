package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/decorhaus/storefront_api/internal/models"
)

// ProfileRepository handles profiles and admin membership.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileSelect = `
        SELECT p.id, p.full_name, p.email, p.phone, p.email_verified,
            (a.user_id IS NOT NULL) AS is_admin, p.created_at, p.updated_at
        FROM profiles p LEFT JOIN admin_users a ON a.user_id = p.id`

// IsAdmin reports whether the user id has back-office access.
func (r *ProfileRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, `SELECT EXISTS (SELECT 1 FROM admin_users WHERE user_id = $1)`, userID); err != nil {
		return false, mapError("check admin", err)
	}
	return ok, nil
}

// GetByID returns a profile.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.GetContext(ctx, &p, profileSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, mapError("get profile", err)
	}
	return &p, nil
}

// Ensure creates an empty profile for a session user when none exists yet.
func (r *ProfileRepository) Ensure(ctx context.Context, id, email string) error {
	const q = `INSERT INTO profiles (id, email) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, id, email)
	return mapError("ensure profile", err)
}

// ListPaged returns profiles matching search (name or email), newest first.
func (r *ProfileRepository) ListPaged(ctx context.Context, search string, page, limit int) ([]models.Profile, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	const where = ` WHERE ($1 = '' OR p.email ILIKE '%' || $1 || '%' OR p.full_name ILIKE '%' || $1 || '%')`
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM profiles p`+where, search); err != nil {
		return nil, 0, mapError("count profiles", err)
	}
	profiles := []models.Profile{}
	q := profileSelect + where + ` ORDER BY p.created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &profiles, q, search, limit, offset); err != nil {
		return nil, 0, mapError("list profiles", err)
	}
	return profiles, total, nil
}

// UpdateName changes the display name.
func (r *ProfileRepository) UpdateName(ctx context.Context, id, fullName string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET full_name = $1, updated_at = NOW() WHERE id = $2`, fullName, id)
	if err != nil {
		return mapError("update profile", err)
	}
	return requireAffected("update profile", res)
}

// EmailOf returns the profile email, empty when none is set.
func (r *ProfileRepository) EmailOf(ctx context.Context, id string) (string, error) {
	var email string
	if err := r.db.GetContext(ctx, &email, `SELECT email FROM profiles WHERE id = $1`, id); err != nil {
		return "", mapError("get profile email", err)
	}
	return email, nil
}

// MarkEmailVerified flags the profile email as confirmed when it still equals email.
// ErrNotFound means the profile has a different address.
func (r *ProfileRepository) MarkEmailVerified(ctx context.Context, tx *sqlx.Tx, id, email string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE profiles SET email_verified = true, updated_at = NOW() WHERE id = $1 AND LOWER(email) = LOWER($2)`, id, email)
	if err != nil {
		return mapError("verify email", err)
	}
	return requireAffected("verify email", res)
}

// UpdateEmail replaces the profile email. A taken address fails with ErrAlreadyExists.
func (r *ProfileRepository) UpdateEmail(ctx context.Context, tx *sqlx.Tx, id, email string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE profiles SET email = $1, email_verified = true, updated_at = NOW() WHERE id = $2`, email, id)
	if err != nil {
		return mapError("update email", err)
	}
	return requireAffected("update email", res)
}

// UpdatePhone attaches a verified phone number.
func (r *ProfileRepository) UpdatePhone(ctx context.Context, tx *sqlx.Tx, id, phone string) error {
	res, err := tx.ExecContext(ctx, `UPDATE profiles SET phone = $1, updated_at = NOW() WHERE id = $2`, phone, id)
	if err != nil {
		return mapError("update phone", err)
	}
	return requireAffected("update phone", res)
}

// GrantAdmin adds the user to admin_users.
func (r *ProfileRepository) GrantAdmin(ctx context.Context, userID, role string) error {
	const q = `INSERT INTO admin_users (user_id, role) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := r.db.ExecContext(ctx, q, userID, role)
	return mapError("grant admin", err)
}

// RevokeAdmin removes the user from admin_users.
func (r *ProfileRepository) RevokeAdmin(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_users WHERE user_id = $1`, userID)
	if err != nil {
		return mapError("revoke admin", err)
	}
	return requireAffected("revoke admin", res)
}

// Count returns the number of profiles.
func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM profiles`); err != nil {
		return 0, mapError("count profiles", err)
	}
	return n, nil
}
