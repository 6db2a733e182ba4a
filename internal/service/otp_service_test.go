package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// memOTPStore mirrors OTPRepository: one table per channel, one live code per target.
type memOTPStore struct {
	mu     sync.Mutex
	nextID int
	recs   map[string]*models.OTPRecord
}

func otpKey(ch models.OTPChannel, target string) string {
	return string(ch) + "|" + target
}

func (s *memOTPStore) Replace(_ context.Context, ch models.OTPChannel, rec *models.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	cp := *rec
	s.recs[otpKey(ch, rec.Target)] = &cp
	return nil
}

func (s *memOTPStore) Get(_ context.Context, ch models.OTPChannel, target string, purpose models.OTPPurpose) (*models.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[otpKey(ch, target)]
	if !ok || rec.Purpose != purpose {
		return nil, utils.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memOTPStore) Consume(_ context.Context, _ *sqlx.Tx, _ models.OTPChannel, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, rec := range s.recs {
		if rec.ID == id {
			delete(s.recs, k)
			return nil
		}
	}
	return utils.ErrNotFound
}

type fakeCounter struct {
	counts map[string]int64
}

func (c *fakeCounter) Issued(_ context.Context, target string) (int64, error) {
	c.counts[target]++
	return c.counts[target], nil
}

func (c *fakeCounter) Recent(_ context.Context, target string) (int64, error) {
	return c.counts[target], nil
}

type fakeAccounts struct {
	profiles  map[string]string
	verified  []string
	emails    map[string]string
	phones    map[string]string
	updateErr error
}

func (a *fakeAccounts) EmailOf(_ context.Context, id string) (string, error) {
	email, ok := a.profiles[id]
	if !ok {
		return "", utils.ErrNotFound
	}
	return email, nil
}

func (a *fakeAccounts) MarkEmailVerified(_ context.Context, _ *sqlx.Tx, id, email string) error {
	if !strings.EqualFold(a.profiles[id], email) {
		return utils.ErrNotFound
	}
	a.verified = append(a.verified, id)
	return nil
}

func (a *fakeAccounts) UpdateEmail(_ context.Context, _ *sqlx.Tx, id, email string) error {
	if a.updateErr != nil {
		return a.updateErr
	}
	a.emails[id] = email
	return nil
}

func (a *fakeAccounts) UpdatePhone(_ context.Context, _ *sqlx.Tx, id, phone string) error {
	a.phones[id] = phone
	return nil
}

type otpFixture struct {
	svc      *OTPService
	store    *memOTPStore
	counter  *fakeCounter
	accounts *fakeAccounts
	email    *recordingSender
	sms      *recordingSender
	clock    time.Time
}

func newOTPFixture() *otpFixture {
	f := &otpFixture{
		store:   &memOTPStore{recs: map[string]*models.OTPRecord{}},
		counter: &fakeCounter{counts: map[string]int64{}},
		accounts: &fakeAccounts{
			profiles: map[string]string{"user-1": "asha@example.com", "user-2": "ravi@example.com"},
			emails:   map[string]string{},
			phones:   map[string]string{},
		},
		email: &recordingSender{},
		sms:   &recordingSender{},
		clock: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewOTPService(f.store, f.counter, f.accounts, f.inTx, f.email, f.sms, OTPOptions{
		TTL:          10 * time.Minute,
		MaxPerWindow: 10,
		BrandName:    "Decorhaus",
		BcryptCost:   bcrypt.MinCost,
	})
	f.svc.now = func() time.Time { return f.clock }
	return f
}

// inTx restores the code store when fn fails, like a rolled back transaction.
func (f *otpFixture) inTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	f.store.mu.Lock()
	saved := make(map[string]*models.OTPRecord, len(f.store.recs))
	for k, v := range f.store.recs {
		saved[k] = v
	}
	f.store.mu.Unlock()

	if err := fn(nil); err != nil {
		f.store.mu.Lock()
		f.store.recs = saved
		f.store.mu.Unlock()
		return err
	}
	return nil
}

var (
	emailCode = regexp.MustCompile(`\b\d{8}\b`)
	phoneCode = regexp.MustCompile(`\b\d{6}\b`)
)

func (f *otpFixture) issue(t *testing.T, purpose models.OTPPurpose, target, userID string) string {
	t.Helper()
	require.NoError(t, f.svc.Issue(context.Background(), purpose, target, userID))
	if purpose.Channel() == models.OTPChannelPhone {
		code := phoneCode.FindString(f.sms.last().Body)
		require.NotEmpty(t, code)
		return code
	}
	code := emailCode.FindString(f.email.last().Body)
	require.NotEmpty(t, code)
	return code
}

func TestNormalizeTarget(t *testing.T) {
	got, err := NormalizeTarget(models.OTPPurposeSignup, " Asha@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", got)

	got, err = NormalizeTarget(models.OTPPurposePhone, "+91 98000-00000")
	require.NoError(t, err)
	assert.Equal(t, "+919800000000", got)

	_, err = NormalizeTarget(models.OTPPurposePhone, "9800000000")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = NormalizeTarget(models.OTPPurposeEmailChange, "Asha <asha@example.com>")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestOTPSignupFlow(t *testing.T) {
	f := newOTPFixture()
	ctx := context.Background()

	code := f.issue(t, models.OTPPurposeSignup, "asha@example.com", "user-1")
	assert.Len(t, code, 8)

	f.clock = f.clock.Add(9*time.Minute + 59*time.Second)
	require.NoError(t, f.svc.Verify(ctx, models.OTPPurposeSignup, "asha@example.com", code, "user-1"))
	assert.Equal(t, []string{"user-1"}, f.accounts.verified)

	err := f.svc.Verify(ctx, models.OTPPurposeSignup, "asha@example.com", code, "user-1")
	assert.ErrorIs(t, err, utils.ErrOTPInvalid)
}

func TestOTPExpires(t *testing.T) {
	f := newOTPFixture()
	code := f.issue(t, models.OTPPurposeSignup, "asha@example.com", "user-1")

	f.clock = f.clock.Add(10*time.Minute + time.Second)
	err := f.svc.Verify(context.Background(), models.OTPPurposeSignup, "asha@example.com", code, "user-1")
	assert.ErrorIs(t, err, utils.ErrOTPInvalid)
	assert.Empty(t, f.accounts.verified)
}

func TestOTPReissueReplacesEarlierCode(t *testing.T) {
	f := newOTPFixture()
	ctx := context.Background()
	first := f.issue(t, models.OTPPurposeEmailChange, "new@example.com", "user-1")
	second := f.issue(t, models.OTPPurposeEmailChange, "new@example.com", "user-1")

	if first != second {
		err := f.svc.Verify(ctx, models.OTPPurposeEmailChange, "new@example.com", first, "user-1")
		assert.ErrorIs(t, err, utils.ErrOTPInvalid)
	}
	require.NoError(t, f.svc.Verify(ctx, models.OTPPurposeEmailChange, "new@example.com", second, "user-1"))
	assert.Equal(t, "new@example.com", f.accounts.emails["user-1"])
}

func TestOTPPhoneBinding(t *testing.T) {
	f := newOTPFixture()
	code := f.issue(t, models.OTPPurposePhone, "+919800000000", "user-1")
	assert.Len(t, code, 6)
	assert.Equal(t, "+919800000000", f.sms.last().To)

	require.NoError(t, f.svc.Verify(context.Background(), models.OTPPurposePhone, "+919800000000", code, "user-1"))
	assert.Equal(t, "+919800000000", f.accounts.phones["user-1"])
}

func TestOTPBoundToIssuingUser(t *testing.T) {
	f := newOTPFixture()
	code := f.issue(t, models.OTPPurposePhone, "+919800000000", "user-1")

	err := f.svc.Verify(context.Background(), models.OTPPurposePhone, "+919800000000", code, "user-2")
	assert.ErrorIs(t, err, utils.ErrOTPInvalid)
	assert.Empty(t, f.accounts.phones)
}

func TestOTPVerifyRateLimited(t *testing.T) {
	f := newOTPFixture()
	var code string
	for i := 0; i < 11; i++ {
		code = f.issue(t, models.OTPPurposeSignup, "asha@example.com", "user-1")
	}
	err := f.svc.Verify(context.Background(), models.OTPPurposeSignup, "asha@example.com", code, "user-1")
	assert.ErrorIs(t, err, utils.ErrRateLimited)
}

func TestOTPRejectsMalformedInput(t *testing.T) {
	f := newOTPFixture()
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Issue(ctx, "login", "asha@example.com", "user-1"), utils.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.Issue(ctx, models.OTPPurposeSignup, "asha@example.com", ""), utils.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Verify(ctx, models.OTPPurposeSignup, "asha@example.com", "123", "user-1"), utils.ErrOTPInvalid)
	assert.ErrorIs(t, f.svc.Verify(ctx, models.OTPPurposeSignup, "asha@example.com", "12345678", "user-1"), utils.ErrOTPInvalid)
}

func TestOTPDeliveryFailure(t *testing.T) {
	f := newOTPFixture()
	f.email.err = errors.New("ses throttled")

	err := f.svc.Issue(context.Background(), models.OTPPurposeSignup, "asha@example.com", "user-1")
	assert.ErrorIs(t, err, utils.ErrGatewayFailure)
}

func TestOTPSignupOnlyForAccountEmail(t *testing.T) {
	f := newOTPFixture()

	err := f.svc.Issue(context.Background(), models.OTPPurposeSignup, "me@attacker.example", "user-1")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	assert.Empty(t, f.email.sent)

	f.accounts.profiles["user-3"] = ""
	err = f.svc.Issue(context.Background(), models.OTPPurposeSignup, "me@attacker.example", "user-3")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestOTPSignupRejectedAfterAccountEmailChanges(t *testing.T) {
	f := newOTPFixture()
	ctx := context.Background()
	code := f.issue(t, models.OTPPurposeSignup, "asha@example.com", "user-1")

	f.accounts.profiles["user-1"] = "asha.new@example.com"
	err := f.svc.Verify(ctx, models.OTPPurposeSignup, "asha@example.com", code, "user-1")
	assert.ErrorIs(t, err, utils.ErrOTPInvalid)
	assert.Empty(t, f.accounts.verified)
}

func TestOTPFailedEmailChangeKeepsCode(t *testing.T) {
	f := newOTPFixture()
	ctx := context.Background()
	code := f.issue(t, models.OTPPurposeEmailChange, "taken@example.com", "user-1")

	f.accounts.updateErr = fmt.Errorf("update email: %w", utils.ErrAlreadyExists)
	err := f.svc.Verify(ctx, models.OTPPurposeEmailChange, "taken@example.com", code, "user-1")
	assert.ErrorIs(t, err, utils.ErrAlreadyExists)

	_, err = f.store.Get(ctx, models.OTPChannelEmail, "taken@example.com", models.OTPPurposeEmailChange)
	require.NoError(t, err)

	f.accounts.updateErr = nil
	require.NoError(t, f.svc.Verify(ctx, models.OTPPurposeEmailChange, "taken@example.com", code, "user-1"))
	assert.Equal(t, "taken@example.com", f.accounts.emails["user-1"])
}

func TestOTPReissueForOtherPurposeReplacesCode(t *testing.T) {
	f := newOTPFixture()
	ctx := context.Background()
	signup := f.issue(t, models.OTPPurposeSignup, "asha@example.com", "user-1")
	change := f.issue(t, models.OTPPurposeEmailChange, "asha@example.com", "user-1")

	err := f.svc.Verify(ctx, models.OTPPurposeSignup, "asha@example.com", signup, "user-1")
	assert.ErrorIs(t, err, utils.ErrOTPInvalid)
	require.NoError(t, f.svc.Verify(ctx, models.OTPPurposeEmailChange, "asha@example.com", change, "user-1"))
}
