package entity

import "time"

// Employee represents a dealership staff member.
type Employee struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	FirstName       string     `gorm:"size:100;not null" json:"first_name"`
	LastName        string     `gorm:"size:100;not null" json:"last_name"`
	Email           string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PhoneNumber     string     `gorm:"size:20;not null;default:''" json:"phone_number"`
	Position        string     `gorm:"size:100;not null" json:"position"`
	Salary          float64    `gorm:"type:decimal(18,2);not null" json:"salary"`
	HireDate        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"hire_date"`
	TerminationDate *time.Time `json:"termination_date,omitempty"`
	IsActive        bool       `gorm:"not null;default:true" json:"is_active"`
}

// TableName defines the table name for GORM.
func (Employee) TableName() string {
	return "employees"
}
