package entity

import "time"

// Known OTP purposes. The dispatcher treats anything else as
// "verified, return payload untouched".
const (
	OtpPurposeLogin           = "Login"
	OtpPurposeRegister        = "Register"
	OtpPurposePurchaseRequest = "PurchaseRequest"
	OtpPurposeUpdateVehicle   = "UpdateVehicle"
)

// OtpCode stores a pending or consumed one-time passcode for an
// (email, purpose) pair. Payload carries the caller's serialized intent
// so the original request survives the request-code/verify-code round trip.
type OtpCode struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Code        string     `gorm:"size:6;not null" json:"-"`
	Email       string     `gorm:"size:100;not null;index:idx_otp_email_purpose" json:"email"`
	Purpose     string     `gorm:"size:50;not null;index:idx_otp_email_purpose" json:"purpose"`
	Payload     *string    `gorm:"size:500" json:"-"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	Used        bool       `gorm:"not null;default:false" json:"used"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts int        `gorm:"not null;default:3" json:"max_attempts"`
}

// TableName defines the table name for GORM.
func (OtpCode) TableName() string {
	return "otp_codes"
}

// IsConsumed reports whether the record is terminal. A consumed record
// can never satisfy another verification attempt.
func (o *OtpCode) IsConsumed() bool {
	return o.Used
}

// IsExpired reports whether the record is past its expiry at the given time.
func (o *OtpCode) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// IsActive reports whether the record can still satisfy a new issuance
// uniqueness check: neither used nor expired.
func (o *OtpCode) IsActive(now time.Time) bool {
	return !o.Used && !o.IsExpired(now)
}

// AttemptsRemaining returns how many verification attempts are left,
// never below zero.
func (o *OtpCode) AttemptsRemaining() int {
	remaining := o.MaxAttempts - o.Attempts
	if remaining < 0 {
		return 0
	}
	return remaining
}
