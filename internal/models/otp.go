package models

import "time"

// OTPChannel is the delivery channel of a one-time code; each has its own table.
type OTPChannel string

const (
	OTPChannelEmail OTPChannel = "email"
	OTPChannelPhone OTPChannel = "phone"
)

// OTPPurpose names the action an OTP unlocks.
type OTPPurpose string

const (
	OTPPurposeSignup      OTPPurpose = "signup"
	OTPPurposeEmailChange OTPPurpose = "email_change"
	OTPPurposePhone       OTPPurpose = "phone"
)

// Channel returns the delivery channel for the purpose.
func (p OTPPurpose) Channel() OTPChannel {
	if p == OTPPurposePhone {
		return OTPChannelPhone
	}
	return OTPChannelEmail
}

// CodeLength returns the number of digits issued for the purpose:
// 8 for email flows, 6 for phone flows.
func (p OTPPurpose) CodeLength() int {
	if p.Channel() == OTPChannelPhone {
		return 6
	}
	return 8
}

// Valid reports whether p is a known purpose.
func (p OTPPurpose) Valid() bool {
	switch p {
	case OTPPurposeSignup, OTPPurposeEmailChange, OTPPurposePhone:
		return true
	}
	return false
}

// OTPRecord is a live one-time code. At most one exists per (target, purpose).
type OTPRecord struct {
	ID        int        `db:"id"`
	Target    string     `db:"target"`
	Purpose   OTPPurpose `db:"purpose"`
	UserID    *string    `db:"user_id"`
	CodeHash  string     `db:"code_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// ExpiredAt reports whether the record can no longer be accepted at now.
func (r *OTPRecord) ExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
