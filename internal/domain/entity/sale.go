package entity

import "time"

// Sale records a completed vehicle purchase.
type Sale struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CarID         uint      `gorm:"not null;index" json:"car_id"`
	CustomerID    uint      `gorm:"not null;index" json:"customer_id"`
	EmployeeID    uint      `gorm:"not null;index" json:"employee_id"`
	SalePrice     float64   `gorm:"type:decimal(18,2);not null" json:"sale_price"`
	SaleDate      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"sale_date"`
	PaymentMethod string    `gorm:"size:50;not null;default:''" json:"payment_method"`
	Notes         string    `gorm:"size:500;not null;default:''" json:"notes"`

	Car      *Car      `gorm:"foreignKey:CarID" json:"car,omitempty"`
	Customer *User     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// TableName defines the table name for GORM.
func (Sale) TableName() string {
	return "sales"
}
