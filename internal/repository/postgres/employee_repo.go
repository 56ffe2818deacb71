package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// EmployeeRepo implements repository.EmployeeRepository on PostgreSQL.
type EmployeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo creates a new employee repository.
func NewEmployeeRepo(db *gorm.DB) *EmployeeRepo {
	return &EmployeeRepo{db: db}
}

// Create inserts a new employee.
func (r *EmployeeRepo) Create(employee *entity.Employee) error {
	if err := r.db.Create(employee).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: employee email %s already exists", apperrors.ErrConflict, employee.Email)
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

// GetByID returns an employee by primary key.
func (r *EmployeeRepo) GetByID(id uint) (*entity.Employee, error) {
	var employee entity.Employee
	if err := r.db.First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get employee #%d: %w", id, err)
	}
	return &employee, nil
}

// GetByEmail returns an employee by email.
func (r *EmployeeRepo) GetByEmail(email string) (*entity.Employee, error) {
	var employee entity.Employee
	if err := r.db.Where("email = ?", email).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get employee by email: %w", err)
	}
	return &employee, nil
}

// Update saves all employee fields.
func (r *EmployeeRepo) Update(employee *entity.Employee) error {
	return r.db.Save(employee).Error
}

// Delete removes an employee by primary key.
func (r *EmployeeRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Employee{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List returns employees plus the total count.
func (r *EmployeeRepo) List(onlyActive bool, limit, offset int) ([]entity.Employee, int64, error) {
	var employees []entity.Employee
	var total int64

	query := r.db.Model(&entity.Employee{})
	if onlyActive {
		query = query.Where("is_active")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}
	err := query.Order("id").Limit(limit).Offset(offset).Find(&employees).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, total, nil
}
