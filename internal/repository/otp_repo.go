package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/decorhaus/storefront_api/internal/models"
)

// OTPRepository stores one-time codes. Email and phone codes live in separate tables.
type OTPRepository struct {
	db *sqlx.DB
}

// NewOTPRepository creates a new OTPRepository.
func NewOTPRepository(db *sqlx.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

func otpTable(ch models.OTPChannel) (string, error) {
	switch ch {
	case models.OTPChannelEmail:
		return "email_otps", nil
	case models.OTPChannelPhone:
		return "phone_otps", nil
	}
	return "", fmt.Errorf("unknown otp channel %q", ch)
}

// Replace deletes every prior code for the target and inserts rec, in one transaction,
// so at most one live code exists per target.
func (r *OTPRepository) Replace(ctx context.Context, ch models.OTPChannel, rec *models.OTPRecord) error {
	table, err := otpTable(ch)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE target = $1`, rec.Target); err != nil {
		return mapError("delete prior otp", err)
	}
	q := `INSERT INTO ` + table + ` (target, purpose, user_id, code_hash, expires_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	if err := tx.QueryRowxContext(ctx, q, rec.Target, rec.Purpose, rec.UserID, rec.CodeHash, rec.ExpiresAt).
		Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return mapError("insert otp", err)
	}
	return tx.Commit()
}

// Get returns the live code for (target, purpose).
func (r *OTPRepository) Get(ctx context.Context, ch models.OTPChannel, target string, purpose models.OTPPurpose) (*models.OTPRecord, error) {
	table, err := otpTable(ch)
	if err != nil {
		return nil, err
	}
	var rec models.OTPRecord
	q := `SELECT id, target, purpose, user_id, code_hash, expires_at, created_at FROM ` + table + `
        WHERE target = $1 AND purpose = $2 ORDER BY created_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &rec, q, target, purpose); err != nil {
		return nil, mapError("get otp", err)
	}
	return &rec, nil
}

// Consume deletes a code by id inside tx. It reports ErrNotFound when the code was already
// consumed, so two concurrent verifications cannot both succeed.
func (r *OTPRepository) Consume(ctx context.Context, tx *sqlx.Tx, ch models.OTPChannel, id int) error {
	table, err := otpTable(ch)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return mapError("consume otp", err)
	}
	return requireAffected("consume otp", res)
}

// PurgeExpired removes codes that expired before now from both tables.
func (r *OTPRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, ch := range []models.OTPChannel{models.OTPChannelEmail, models.OTPChannelPhone} {
		table, _ := otpTable(ch)
		res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE expires_at <= $1`, now)
		if err != nil {
			return total, mapError("purge "+table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
