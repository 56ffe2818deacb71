package service

import "errors"

// OTP flow errors used by handlers and tests for stable classification.
// The service pairs them with structured results carrying the
// user-visible message and any actionable data (expiry, attempts left).
var (
	// ErrOtpAlreadyPending: an active code exists for the key; the caller
	// should wait for it to expire instead of requesting another.
	ErrOtpAlreadyPending = errors.New("otp_already_pending")

	// ErrOtpNotFound: no unconsumed record for the key. Deliberately not
	// distinguished from "expired and purged" in the user-facing message.
	ErrOtpNotFound = errors.New("otp_not_found")

	// ErrOtpExpired: the record was past its expiry; it is now consumed.
	ErrOtpExpired = errors.New("otp_expired")

	// ErrOtpAttemptsExceeded: the attempt limit was reached; the record
	// is now consumed. Terminal for this code.
	ErrOtpAttemptsExceeded = errors.New("otp_attempts_exceeded")

	// ErrOtpMismatch: wrong code, attempts remain. Non-terminal.
	ErrOtpMismatch = errors.New("otp_mismatch")

	// ErrOtpConsumed: a concurrent verification consumed the record first.
	ErrOtpConsumed = errors.New("otp_consumed")

	// ErrOtpAccountNotFound: login dispatch found no account for the email.
	ErrOtpAccountNotFound = errors.New("otp_account_not_found")

	// ErrOtpInvalidPayload: registration dispatch could not decode the
	// stored payload.
	ErrOtpInvalidPayload = errors.New("otp_invalid_payload")
)

// IsTerminalOtpError reports whether the verification error consumed the
// record, meaning the caller must start a new OTP cycle. This is the one
// place that decides terminal vs retryable.
func IsTerminalOtpError(err error) bool {
	switch {
	case errors.Is(err, ErrOtpExpired),
		errors.Is(err, ErrOtpAttemptsExceeded),
		errors.Is(err, ErrOtpConsumed),
		errors.Is(err, ErrOtpAccountNotFound),
		errors.Is(err, ErrOtpInvalidPayload):
		return true
	}
	return false
}
