package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	"github.com/yourusername/dealership-api/internal/domain/repository"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// CarRepo implements repository.CarRepository on PostgreSQL.
type CarRepo struct {
	db *gorm.DB
}

// NewCarRepo creates a new car repository.
func NewCarRepo(db *gorm.DB) *CarRepo {
	return &CarRepo{db: db}
}

// Create inserts a new car. Duplicate VINs surface as ErrConflict.
func (r *CarRepo) Create(car *entity.Car) error {
	if err := r.db.Create(car).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: VIN %s already exists", apperrors.ErrConflict, car.VIN)
		}
		return fmt.Errorf("failed to create car: %w", err)
	}
	return nil
}

// GetByID returns a car by primary key.
func (r *CarRepo) GetByID(id uint) (*entity.Car, error) {
	var car entity.Car
	if err := r.db.First(&car, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get car #%d: %w", id, err)
	}
	return &car, nil
}

// GetByVIN returns a car by its VIN.
func (r *CarRepo) GetByVIN(vin string) (*entity.Car, error) {
	var car entity.Car
	if err := r.db.Where("vin = ?", vin).First(&car).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get car by VIN: %w", err)
	}
	return &car, nil
}

// Update saves all car fields.
func (r *CarRepo) Update(car *entity.Car) error {
	if err := r.db.Save(car).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: VIN %s already exists", apperrors.ErrConflict, car.VIN)
		}
		return err
	}
	return nil
}

// Delete removes a car by primary key.
func (r *CarRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Car{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List returns cars matching the filters plus the total count.
func (r *CarRepo) List(filters repository.CarFilters, limit, offset int) ([]entity.Car, int64, error) {
	var cars []entity.Car
	var total int64

	query := r.db.Model(&entity.Car{})
	if filters.Make != "" {
		query = query.Where("make ILIKE ?", filters.Make)
	}
	if filters.Model != "" {
		query = query.Where("model ILIKE ?", filters.Model)
	}
	if filters.YearFrom > 0 {
		query = query.Where("year >= ?", filters.YearFrom)
	}
	if filters.YearTo > 0 {
		query = query.Where("year <= ?", filters.YearTo)
	}
	if filters.PriceMax > 0 {
		query = query.Where("price <= ?", filters.PriceMax)
	}
	if filters.OnlyAvailable {
		query = query.Where("is_available")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cars: %w", err)
	}
	err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&cars).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cars: %w", err)
	}
	return cars, total, nil
}
