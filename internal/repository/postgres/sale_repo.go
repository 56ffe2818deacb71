package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// SaleRepo implements repository.SaleRepository on PostgreSQL.
type SaleRepo struct {
	db *gorm.DB
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(db *gorm.DB) *SaleRepo {
	return &SaleRepo{db: db}
}

// Create inserts a new sale.
func (r *SaleRepo) Create(sale *entity.Sale) error {
	return r.db.Create(sale).Error
}

// GetByID returns a sale with its car, customer and employee preloaded.
func (r *SaleRepo) GetByID(id uint) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.Preload("Car").Preload("Customer").Preload("Employee").
		First(&sale, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sale #%d: %w", id, err)
	}
	return &sale, nil
}

// List returns sales with pagination plus the total count.
func (r *SaleRepo) List(limit, offset int) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	if err := r.db.Model(&entity.Sale{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}
	err := r.db.Preload("Car").Preload("Customer").Preload("Employee").
		Order("sale_date DESC").Limit(limit).Offset(offset).Find(&sales).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, total, nil
}

// ListByCustomer returns sales for a single customer.
func (r *SaleRepo) ListByCustomer(customerID uint, limit, offset int) ([]entity.Sale, error) {
	var sales []entity.Sale
	err := r.db.Preload("Car").Where("customer_id = ?", customerID).
		Order("sale_date DESC").Limit(limit).Offset(offset).Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sales for customer #%d: %w", customerID, err)
	}
	return sales, nil
}

// ListByEmployee returns sales closed by a single employee.
func (r *SaleRepo) ListByEmployee(employeeID uint, limit, offset int) ([]entity.Sale, error) {
	var sales []entity.Sale
	err := r.db.Preload("Car").Where("employee_id = ?", employeeID).
		Order("sale_date DESC").Limit(limit).Offset(offset).Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sales for employee #%d: %w", employeeID, err)
	}
	return sales, nil
}
