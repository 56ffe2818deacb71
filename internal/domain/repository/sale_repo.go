package repository

import "github.com/yourusername/dealership-api/internal/domain/entity"

// SaleRepository defines persistence for completed sales.
type SaleRepository interface {
	Create(sale *entity.Sale) error
	GetByID(id uint) (*entity.Sale, error)
	List(limit, offset int) ([]entity.Sale, int64, error)
	ListByCustomer(customerID uint, limit, offset int) ([]entity.Sale, error)
	ListByEmployee(employeeID uint, limit, offset int) ([]entity.Sale, error)
}
