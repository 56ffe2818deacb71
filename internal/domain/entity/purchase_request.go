package entity

import "time"

// Purchase request statuses.
const (
	PurchaseRequestPending   = "Pending"
	PurchaseRequestApproved  = "Approved"
	PurchaseRequestRejected  = "Rejected"
	PurchaseRequestCompleted = "Completed"
)

// PurchaseRequest is a customer's offer on a vehicle, created only after
// an OTP cycle for the "PurchaseRequest" purpose has been verified.
type PurchaseRequest struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CarID          uint      `gorm:"not null;index" json:"car_id"`
	CustomerID     uint      `gorm:"not null;index" json:"customer_id"`
	RequestedPrice float64   `gorm:"type:decimal(18,2);not null" json:"requested_price"`
	Message        string    `gorm:"size:1000;not null;default:''" json:"message"`
	RequestDate    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"request_date"`
	Status         string    `gorm:"size:50;not null;default:'Pending'" json:"status"`
	AdminNotes     string    `gorm:"size:1000;not null;default:''" json:"admin_notes"`

	Car      *Car  `gorm:"foreignKey:CarID" json:"car,omitempty"`
	Customer *User `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName defines the table name for GORM.
func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}

// IsValidPurchaseRequestStatus reports whether s is a known workflow status.
func IsValidPurchaseRequestStatus(s string) bool {
	switch s {
	case PurchaseRequestPending, PurchaseRequestApproved, PurchaseRequestRejected, PurchaseRequestCompleted:
		return true
	}
	return false
}
