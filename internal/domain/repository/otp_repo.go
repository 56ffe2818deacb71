package repository

import (
	"context"
	"time"

	"github.com/yourusername/dealership-api/internal/domain/entity"
)

// OtpRepository persists one-time passcode records. All operations are
// atomic with respect to concurrent access on the same (email, purpose)
// key: Create relies on a partial unique index over active records, and
// Consume is a check-and-set that reports whether this caller won.
type OtpRepository interface {
	// Create inserts a new pending record. Returns ErrConflict (wrapped)
	// when an active record for the same (email, purpose) already exists.
	Create(ctx context.Context, code *entity.OtpCode) error

	// GetActive returns the unused, unexpired record for the key, or
	// ErrNotFound.
	GetActive(ctx context.Context, email, purpose string, now time.Time) (*entity.OtpCode, error)

	// GetUnconsumed returns the unused record for the key regardless of
	// expiry, or ErrNotFound. Verification needs this to report expiry
	// explicitly instead of a generic not-found.
	GetUnconsumed(ctx context.Context, email, purpose string) (*entity.OtpCode, error)

	// IncrementAttempts adds one to the attempt counter of the record.
	IncrementAttempts(ctx context.Context, id uint) error

	// Consume marks the record used at the given time. It only touches
	// rows that are still unused and reports whether this call performed
	// the transition; false means another caller consumed it first.
	Consume(ctx context.Context, id uint, at time.Time) (bool, error)

	// DeleteDead removes all records that are expired or used and
	// returns how many were deleted.
	DeleteDead(ctx context.Context, now time.Time) (int64, error)
}
