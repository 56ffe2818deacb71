package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// User represents an account in the system. Customers and staff share the
// same table, distinguished by Role.
type User struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Email       string  `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password    string  `gorm:"size:100;not null" json:"-"`
	FirstName   string  `gorm:"size:100;not null" json:"first_name"`
	LastName    string  `gorm:"size:100;not null" json:"last_name"`
	PhoneNumber string  `gorm:"size:20;not null;default:''" json:"phone_number"`
	Address     string  `gorm:"size:500;not null;default:''" json:"address"`
	City        string  `gorm:"size:100;not null;default:''" json:"city"`
	State       string  `gorm:"size:50;not null;default:''" json:"state"`
	ZipCode     string  `gorm:"size:20;not null;default:''" json:"zip_code"`
	Role        string  `gorm:"size:20;not null;default:'customer'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName defines the table name for GORM.
func (User) TableName() string {
	return "users"
}

// BeforeSave hashes the password before persisting, but only when it is
// not already a bcrypt hash ("$2a$", "$2b$" or "$2y$" prefix).
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !strings.HasPrefix(u.Password, "$2a$") &&
		!strings.HasPrefix(u.Password, "$2b$") && !strings.HasPrefix(u.Password, "$2y$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] failed to hash password for email=%s: %v", u.Email, err)
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword reports whether the given plain password matches the hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// FullName returns "First Last" for token claims and views.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsStaff reports whether the user may manage inventory and requests.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}
