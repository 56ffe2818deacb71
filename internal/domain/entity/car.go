package entity

import "time"

// Car represents a vehicle in the dealership inventory.
type Car struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Make         string     `gorm:"size:100;not null" json:"make"`
	Model        string     `gorm:"size:100;not null" json:"model"`
	Year         int        `gorm:"not null" json:"year"`
	Color        string     `gorm:"size:50;not null" json:"color"`
	VIN          string     `gorm:"size:17;not null;uniqueIndex" json:"vin"`
	Price        float64    `gorm:"type:decimal(18,2);not null" json:"price"`
	Mileage      int        `gorm:"not null" json:"mileage"`
	Transmission string     `gorm:"size:50;not null;default:''" json:"transmission"`
	FuelType     string     `gorm:"size:50;not null;default:''" json:"fuel_type"`
	IsAvailable  bool       `gorm:"not null;default:true" json:"is_available"`
	DateAdded    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"date_added"`
	DateSold     *time.Time `json:"date_sold,omitempty"`
}

// TableName defines the table name for GORM.
func (Car) TableName() string {
	return "cars"
}

// MarkSold flips availability and stamps the sale date.
func (c *Car) MarkSold(at time.Time) {
	c.IsAvailable = false
	c.DateSold = &at
}
