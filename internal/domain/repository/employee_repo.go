package repository

import "github.com/yourusername/dealership-api/internal/domain/entity"

// EmployeeRepository defines persistence for staff records.
type EmployeeRepository interface {
	Create(employee *entity.Employee) error
	GetByID(id uint) (*entity.Employee, error)
	GetByEmail(email string) (*entity.Employee, error)
	Update(employee *entity.Employee) error
	Delete(id uint) error
	List(onlyActive bool, limit, offset int) ([]entity.Employee, int64, error)
}
