package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/utils"
	"github.com/decorhaus/storefront_api/pkg/notify"
)

type otpStore interface {
	Replace(ctx context.Context, ch models.OTPChannel, rec *models.OTPRecord) error
	Get(ctx context.Context, ch models.OTPChannel, target string, purpose models.OTPPurpose) (*models.OTPRecord, error)
	Consume(ctx context.Context, tx *sqlx.Tx, ch models.OTPChannel, id int) error
}

type issuanceCounter interface {
	Issued(ctx context.Context, target string) (int64, error)
	Recent(ctx context.Context, target string) (int64, error)
}

type accountUpdater interface {
	EmailOf(ctx context.Context, id string) (string, error)
	MarkEmailVerified(ctx context.Context, tx *sqlx.Tx, id, email string) error
	UpdateEmail(ctx context.Context, tx *sqlx.Tx, id, email string) error
	UpdatePhone(ctx context.Context, tx *sqlx.Tx, id, phone string) error
}

var phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// OTPOptions tunes code lifetime and limits.
type OTPOptions struct {
	TTL          time.Duration
	MaxPerWindow int
	BrandName    string
	BcryptCost   int
}

// OTPService issues and verifies one-time codes for signup, email change and phone binding.
type OTPService struct {
	store    otpStore
	counter  issuanceCounter
	accounts accountUpdater
	inTx     TxRunner
	email    notify.EmailSender
	sms      notify.SMSSender
	opts     OTPOptions
	now      func() time.Time
}

// NewOTPService constructs an OTPService. inTx scopes code consumption and the
// account change it unlocks to one transaction.
func NewOTPService(store otpStore, counter issuanceCounter, accounts accountUpdater, inTx TxRunner, email notify.EmailSender, sms notify.SMSSender, opts OTPOptions) *OTPService {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.MaxPerWindow <= 0 {
		opts.MaxPerWindow = 10
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &OTPService{
		store:    store,
		counter:  counter,
		accounts: accounts,
		inTx:     inTx,
		email:    email,
		sms:      sms,
		opts:     opts,
		now:      time.Now,
	}
}

// NormalizeTarget canonicalises an email address or E.164 phone number for purpose.
func NormalizeTarget(purpose models.OTPPurpose, target string) (string, error) {
	target = strings.TrimSpace(target)
	if purpose.Channel() == models.OTPChannelPhone {
		target = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(target)
		if !phonePattern.MatchString(target) {
			return "", fmt.Errorf("phone must be in international format: %w", utils.ErrInvalidInput)
		}
		return target, nil
	}
	addr, err := mail.ParseAddress(target)
	if err != nil || addr.Address != target {
		return "", fmt.Errorf("invalid email address: %w", utils.ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}

// Issue creates a fresh code for target, replacing any earlier one, and delivers it.
func (s *OTPService) Issue(ctx context.Context, purpose models.OTPPurpose, target, userID string) error {
	if !purpose.Valid() {
		return fmt.Errorf("unknown purpose %q: %w", purpose, utils.ErrInvalidInput)
	}
	if userID == "" {
		return utils.ErrUnauthorized
	}
	target, err := NormalizeTarget(purpose, target)
	if err != nil {
		return err
	}
	if purpose == models.OTPPurposeSignup {
		if err := s.requireAccountEmail(ctx, userID, target); err != nil {
			return err
		}
	}

	code, err := utils.GenerateNumericCode(purpose.CodeLength())
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.opts.BcryptCost)
	if err != nil {
		return err
	}

	rec := &models.OTPRecord{
		Target:    target,
		Purpose:   purpose,
		UserID:    &userID,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(s.opts.TTL),
	}
	if err := s.store.Replace(ctx, purpose.Channel(), rec); err != nil {
		return err
	}
	if _, err := s.counter.Issued(ctx, target); err != nil {
		log.Warn().Err(err).Str("purpose", string(purpose)).Msg("Failed to count OTP issuance")
	}

	minutes := int(s.opts.TTL / time.Minute)
	if purpose.Channel() == models.OTPChannelPhone {
		msg := fmt.Sprintf("%s is your %s verification code. It expires in %d minutes.", code, s.opts.BrandName, minutes)
		if err := s.sms.SendSMS(ctx, target, msg); err != nil {
			log.Error().Err(err).Msg("Failed to send OTP SMS")
			return fmt.Errorf("%w: %v", utils.ErrGatewayFailure, err)
		}
	} else {
		subject := fmt.Sprintf("Your %s verification code", s.opts.BrandName)
		body := fmt.Sprintf("Your verification code is %s.\n\nIt expires in %d minutes. If you did not request it, ignore this email.", code, minutes)
		if err := s.email.SendEmail(ctx, target, subject, body); err != nil {
			log.Error().Err(err).Msg("Failed to send OTP email")
			return fmt.Errorf("%w: %v", utils.ErrGatewayFailure, err)
		}
	}

	log.Info().Str("purpose", string(purpose)).Str("user_id", userID).Time("expires_at", rec.ExpiresAt).Msg("OTP issued")
	return nil
}

// Verify checks code for target and, on success, consumes it and performs the
// action the purpose unlocks for userID.
func (s *OTPService) Verify(ctx context.Context, purpose models.OTPPurpose, target, code, userID string) error {
	if !purpose.Valid() {
		return fmt.Errorf("unknown purpose %q: %w", purpose, utils.ErrInvalidInput)
	}
	if userID == "" {
		return utils.ErrUnauthorized
	}
	target, err := NormalizeTarget(purpose, target)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if len(code) != purpose.CodeLength() {
		return utils.ErrOTPInvalid
	}

	recent, err := s.counter.Recent(ctx, target)
	if err != nil {
		return err
	}
	if recent > int64(s.opts.MaxPerWindow) {
		return utils.ErrRateLimited
	}

	ch := purpose.Channel()
	rec, err := s.store.Get(ctx, ch, target, purpose)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.ErrOTPInvalid
		}
		return err
	}
	if rec.ExpiredAt(s.now()) {
		return utils.ErrOTPInvalid
	}
	if rec.UserID != nil && *rec.UserID != userID {
		return utils.ErrOTPInvalid
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		return utils.ErrOTPInvalid
	}
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.store.Consume(ctx, tx, ch, rec.ID); err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return utils.ErrOTPInvalid
			}
			return err
		}
		switch purpose {
		case models.OTPPurposeSignup:
			err := s.accounts.MarkEmailVerified(ctx, tx, userID, target)
			if errors.Is(err, utils.ErrNotFound) {
				// account email changed after the code was sent
				return utils.ErrOTPInvalid
			}
			return err
		case models.OTPPurposeEmailChange:
			return s.accounts.UpdateEmail(ctx, tx, userID, target)
		case models.OTPPurposePhone:
			return s.accounts.UpdatePhone(ctx, tx, userID, target)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("purpose", string(purpose)).Str("user_id", userID).Msg("OTP verified")
	return nil
}

// requireAccountEmail rejects signup codes addressed anywhere but the account's own email.
func (s *OTPService) requireAccountEmail(ctx context.Context, userID, target string) error {
	email, err := s.accounts.EmailOf(ctx, userID)
	if err != nil {
		return err
	}
	if email == "" || !strings.EqualFold(email, target) {
		return fmt.Errorf("signup codes are sent to the account email only: %w", utils.ErrInvalidInput)
	}
	return nil
}
