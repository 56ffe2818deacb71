package repository

import "github.com/yourusername/dealership-api/internal/domain/entity"

// PurchaseRequestRepository defines persistence for purchase-request workflow.
type PurchaseRequestRepository interface {
	Create(request *entity.PurchaseRequest) error
	GetByID(id uint) (*entity.PurchaseRequest, error)
	Update(request *entity.PurchaseRequest) error
	List(status string, limit, offset int) ([]entity.PurchaseRequest, int64, error)
	ListByCustomer(customerID uint, limit, offset int) ([]entity.PurchaseRequest, error)
}
