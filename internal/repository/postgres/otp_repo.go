package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// OtpRepo implements repository.OtpRepository on PostgreSQL.
//
// The uniqueness of active records is enforced by a partial unique index
// on (email, purpose) WHERE NOT used (see migrations), so two concurrent
// inserts for the same key cannot both succeed.
type OtpRepo struct {
	db *gorm.DB
}

// NewOtpRepo creates a new OTP repository.
func NewOtpRepo(db *gorm.DB) *OtpRepo {
	return &OtpRepo{db: db}
}

// Create inserts a new pending record. A unique violation on the active
// index is reported as ErrConflict so the service can answer AlreadyPending.
func (r *OtpRepo) Create(ctx context.Context, code *entity.OtpCode) error {
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: active code already exists for %s/%s", apperrors.ErrConflict, code.Email, code.Purpose)
		}
		return fmt.Errorf("failed to create otp code: %w", err)
	}
	return nil
}

// GetActive returns the unused, unexpired record for (email, purpose).
func (r *OtpRepo) GetActive(ctx context.Context, email, purpose string, now time.Time) (*entity.OtpCode, error) {
	var code entity.OtpCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND NOT used AND expires_at > ?", email, purpose, now).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active otp code: %w", err)
	}
	return &code, nil
}

// GetUnconsumed returns the unused record for (email, purpose) regardless
// of expiry, so verification can distinguish expired from missing.
func (r *OtpRepo) GetUnconsumed(ctx context.Context, email, purpose string) (*entity.OtpCode, error) {
	var code entity.OtpCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND NOT used", email, purpose).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get unconsumed otp code: %w", err)
	}
	return &code, nil
}

// IncrementAttempts adds one to the attempt counter.
func (r *OtpRepo) IncrementAttempts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&entity.OtpCode{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

// Consume marks the record used. The WHERE NOT used guard makes this a
// check-and-set: when two verifications race, only one sees RowsAffected 1.
func (r *OtpRepo) Consume(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.OtpCode{}).
		Where("id = ? AND NOT used", id).
		Updates(map[string]interface{}{
			"used":    true,
			"used_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to consume otp code #%d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteDead bulk-deletes expired or used records.
func (r *OtpRepo) DeleteDead(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ? OR used", now).
		Delete(&entity.OtpCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete dead otp codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// isUniqueViolation checks for a Postgres unique violation (23505) from
// both the pgx and lib/pq drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
