package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	"github.com/yourusername/dealership-api/internal/domain/repository"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// IdentityProvider is the external identity collaborator the purpose
// dispatcher completes login/registration through.
type IdentityProvider interface {
	FindByEmail(email string) (*entity.User, error)
	CreateAccount(input RegisterInput) (*entity.User, error)
	IssueToken(user *entity.User) (string, error)
	PublicView(user *entity.User) *UserView
}

// OtpIssueResult is the outcome of a Generate call. On AlreadyPending it
// carries the existing record's expiry and remaining attempts so the
// caller can render a countdown.
type OtpIssueResult struct {
	Success           bool      `json:"success"`
	Message           string    `json:"message"`
	ExpiresAt         time.Time `json:"expires_at,omitempty"`
	AttemptsRemaining int       `json:"attempts_remaining,omitempty"`
}

// OtpVerification is the outcome of a Verify call. Token and User are set
// for identity purposes; Payload echoes the stored deferred action for
// everything else.
type OtpVerification struct {
	IsValid bool      `json:"is_valid"`
	Message string    `json:"message"`
	Token   string    `json:"token,omitempty"`
	User    *UserView `json:"user,omitempty"`
	Payload *string   `json:"payload,omitempty"`
}

// purposeCompleter finishes a verified OTP cycle for one purpose.
type purposeCompleter func(ctx context.Context, record *entity.OtpCode) (*OtpVerification, error)

// OtpService implements the one-time passcode pipeline: issuance,
// verification state machine, purpose dispatch and purging. The record
// store is the only shared state; the service never caches records
// between calls.
type OtpService struct {
	otpRepo     repository.OtpRepository
	identity    IdentityProvider
	delivery    DeliverySink
	ttl         time.Duration
	maxAttempts int
	completers  map[string]purposeCompleter
	now         func() time.Time
}

// NewOtpService creates the OTP service. ttl <= 0 falls back to 5 minutes
// and maxAttempts <= 0 to 3, the reference policy.
func NewOtpService(
	otpRepo repository.OtpRepository,
	identity IdentityProvider,
	delivery DeliverySink,
	ttl time.Duration,
	maxAttempts int,
) (*OtpService, error) {
	if otpRepo == nil {
		return nil, fmt.Errorf("otp repository is required")
	}
	if identity == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if delivery == nil {
		return nil, fmt.Errorf("delivery sink is required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	s := &OtpService{
		otpRepo:     otpRepo,
		identity:    identity,
		delivery:    delivery,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
	s.completers = map[string]purposeCompleter{
		entity.OtpPurposeLogin:    s.completeLogin,
		entity.OtpPurposeRegister: s.completeRegister,
	}
	return s, nil
}

// Generate issues a new code for (email, purpose), refusing while an
// active one is outstanding. The optional payload is stored opaquely and
// returned verbatim on successful verification.
func (s *OtpService) Generate(ctx context.Context, email, purpose string, payload *string) (*OtpIssueResult, error) {
	email = normalizeEmail(email)
	purpose = strings.TrimSpace(purpose)
	if email == "" || purpose == "" {
		return nil, fmt.Errorf("%w: email and purpose are required", apperrors.ErrValidation)
	}

	now := s.now()

	// Opportunistic purge so the active check below runs against live
	// data even if the periodic sweeper has not fired yet.
	if _, err := s.otpRepo.DeleteDead(ctx, now); err != nil {
		log.Printf("[OtpService] opportunistic purge failed: %v", err)
	}

	if existing, err := s.otpRepo.GetActive(ctx, email, purpose, now); err == nil {
		return &OtpIssueResult{
			Success:           false,
			Message:           "An OTP has already been sent. Please wait before requesting another.",
			ExpiresAt:         existing.ExpiresAt,
			AttemptsRemaining: existing.AttemptsRemaining(),
		}, ErrOtpAlreadyPending
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for active otp: %w", err)
	}

	code, err := generateOtpCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp code: %w", err)
	}

	record := &entity.OtpCode{
		Code:        code,
		Email:       email,
		Purpose:     purpose,
		Payload:     payload,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		Attempts:    0,
		MaxAttempts: s.maxAttempts,
	}
	if err := s.otpRepo.Create(ctx, record); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Lost the insert race: another request created the record
			// between our check and insert. Same answer as AlreadyPending.
			return &OtpIssueResult{
				Success:           false,
				Message:           "An OTP has already been sent. Please wait before requesting another.",
				ExpiresAt:         record.ExpiresAt,
				AttemptsRemaining: s.maxAttempts,
			}, ErrOtpAlreadyPending
		}
		return nil, err
	}

	if err := s.delivery.Deliver(ctx, email, purpose, code, record.ExpiresAt); err != nil {
		log.Printf("[OtpService] delivery failed for %s (%s): %v", email, purpose, err)
	}

	return &OtpIssueResult{
		Success:           true,
		Message:           "OTP sent successfully. Check your console for the code.",
		ExpiresAt:         record.ExpiresAt,
		AttemptsRemaining: s.maxAttempts,
	}, nil
}

// Verify runs the state machine against the stored record:
//
//	lookup -> expiry check -> attempt-limit check -> increment -> compare
//
// Expiry and exhaustion are checked before the code comparison, so a
// correct code never overrides temporal or attempt limits. The attempt
// counter is incremented even on the call that ultimately succeeds.
func (s *OtpService) Verify(ctx context.Context, email, code, purpose string) (*OtpVerification, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	purpose = strings.TrimSpace(purpose)
	if email == "" || code == "" || purpose == "" {
		return nil, fmt.Errorf("%w: email, code and purpose are required", apperrors.ErrValidation)
	}

	record, err := s.otpRepo.GetUnconsumed(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &OtpVerification{
				IsValid: false,
				Message: "Invalid or expired OTP.",
			}, ErrOtpNotFound
		}
		return nil, fmt.Errorf("failed to look up otp: %w", err)
	}

	now := s.now()

	if record.IsExpired(now) {
		if _, err := s.otpRepo.Consume(ctx, record.ID, now); err != nil {
			return nil, err
		}
		return &OtpVerification{
			IsValid: false,
			Message: "OTP has expired. Please request a new one.",
		}, ErrOtpExpired
	}

	if record.Attempts >= record.MaxAttempts {
		if _, err := s.otpRepo.Consume(ctx, record.ID, now); err != nil {
			return nil, err
		}
		return &OtpVerification{
			IsValid: false,
			Message: "Maximum attempts exceeded. Please request a new OTP.",
		}, ErrOtpAttemptsExceeded
	}

	if err := s.otpRepo.IncrementAttempts(ctx, record.ID); err != nil {
		return nil, fmt.Errorf("failed to record otp attempt: %w", err)
	}
	record.Attempts++

	if record.Code != code {
		return &OtpVerification{
			IsValid: false,
			Message: fmt.Sprintf("Invalid OTP. %d attempts remaining.", record.AttemptsRemaining()),
		}, ErrOtpMismatch
	}

	consumed, err := s.otpRepo.Consume(ctx, record.ID, now)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// A concurrent verification won the check-and-set.
		return &OtpVerification{
			IsValid: false,
			Message: "Invalid or expired OTP.",
		}, ErrOtpConsumed
	}

	return s.dispatch(ctx, record)
}

// IsActive reports whether an active code exists for (email, purpose)
// without consuming an attempt.
func (s *OtpService) IsActive(ctx context.Context, email, purpose string) (bool, error) {
	_, err := s.otpRepo.GetActive(ctx, normalizeEmail(email), strings.TrimSpace(purpose), s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PurgeExpired removes all expired or used records and returns the count.
// Deletion is garbage collection, not correctness: used/expires_at already
// make those records logically dead.
func (s *OtpService) PurgeExpired(ctx context.Context) (int64, error) {
	count, err := s.otpRepo.DeleteDead(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("[OtpService] purged %d dead otp codes", count)
	}
	return count, nil
}

// dispatch routes a successfully verified record to its purpose
// completion. The record is already consumed; completion failures are
// terminal for this cycle and never reopen it.
func (s *OtpService) dispatch(ctx context.Context, record *entity.OtpCode) (*OtpVerification, error) {
	if completer, ok := s.completers[record.Purpose]; ok {
		return completer(ctx, record)
	}
	// Unknown and non-identity purposes: hand the stored payload back for the
	// calling layer to execute the deferred mutation.
	return &OtpVerification{
		IsValid: true,
		Message: "OTP verified successfully.",
		Payload: record.Payload,
	}, nil
}

func (s *OtpService) completeLogin(ctx context.Context, record *entity.OtpCode) (*OtpVerification, error) {
	user, err := s.identity.FindByEmail(record.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &OtpVerification{
				IsValid: false,
				Message: "User not found.",
			}, ErrOtpAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up account for login: %w", err)
	}

	token, err := s.identity.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &OtpVerification{
		IsValid: true,
		Message: "Login successful.",
		Token:   token,
		User:    s.identity.PublicView(user),
	}, nil
}

func (s *OtpService) completeRegister(ctx context.Context, record *entity.OtpCode) (*OtpVerification, error) {
	if record.Payload == nil || *record.Payload == "" {
		return &OtpVerification{
			IsValid: false,
			Message: "Invalid registration data.",
		}, ErrOtpInvalidPayload
	}

	var input RegisterInput
	if err := json.Unmarshal([]byte(*record.Payload), &input); err != nil {
		return &OtpVerification{
			IsValid: false,
			Message: "Invalid registration data format.",
		}, ErrOtpInvalidPayload
	}

	user, err := s.identity.CreateAccount(input)
	if err != nil {
		return &OtpVerification{
			IsValid: false,
			Message: "Error processing registration. Please try again.",
		}, fmt.Errorf("registration dispatch failed: %w", err)
	}

	token, err := s.identity.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &OtpVerification{
		IsValid: true,
		Message: "Registration successful.",
		Token:   token,
		User:    s.identity.PublicView(user),
	}, nil
}

// generateOtpCode draws a code from [100000, 999999] using a
// cryptographically secure source. The range deliberately excludes values
// below 100000 so the rendered code is always exactly 6 digits.
func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
