package repository

import "github.com/yourusername/dealership-api/internal/domain/entity"

// CarFilters narrows inventory listings.
type CarFilters struct {
	Make          string
	Model         string
	YearFrom      int
	YearTo        int
	PriceMax      float64
	OnlyAvailable bool
}

// CarRepository defines persistence for the vehicle inventory.
type CarRepository interface {
	Create(car *entity.Car) error
	GetByID(id uint) (*entity.Car, error)
	GetByVIN(vin string) (*entity.Car, error)
	Update(car *entity.Car) error
	Delete(id uint) error
	List(filters CarFilters, limit, offset int) ([]entity.Car, int64, error)
}
