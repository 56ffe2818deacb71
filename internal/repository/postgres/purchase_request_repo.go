package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// PurchaseRequestRepo implements repository.PurchaseRequestRepository on PostgreSQL.
type PurchaseRequestRepo struct {
	db *gorm.DB
}

// NewPurchaseRequestRepo creates a new purchase-request repository.
func NewPurchaseRequestRepo(db *gorm.DB) *PurchaseRequestRepo {
	return &PurchaseRequestRepo{db: db}
}

// Create inserts a new purchase request.
func (r *PurchaseRequestRepo) Create(request *entity.PurchaseRequest) error {
	return r.db.Create(request).Error
}

// GetByID returns a purchase request with its car and customer preloaded.
func (r *PurchaseRequestRepo) GetByID(id uint) (*entity.PurchaseRequest, error) {
	var request entity.PurchaseRequest
	err := r.db.Preload("Car").Preload("Customer").First(&request, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase request #%d: %w", id, err)
	}
	return &request, nil
}

// Update saves all purchase-request fields.
func (r *PurchaseRequestRepo) Update(request *entity.PurchaseRequest) error {
	return r.db.Save(request).Error
}

// List returns purchase requests, optionally filtered by status, plus the
// total count.
func (r *PurchaseRequestRepo) List(status string, limit, offset int) ([]entity.PurchaseRequest, int64, error) {
	var requests []entity.PurchaseRequest
	var total int64

	query := r.db.Model(&entity.PurchaseRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchase requests: %w", err)
	}
	err := query.Preload("Car").Preload("Customer").
		Order("request_date DESC").Limit(limit).Offset(offset).Find(&requests).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchase requests: %w", err)
	}
	return requests, total, nil
}

// ListByCustomer returns purchase requests for a single customer.
func (r *PurchaseRequestRepo) ListByCustomer(customerID uint, limit, offset int) ([]entity.PurchaseRequest, error) {
	var requests []entity.PurchaseRequest
	err := r.db.Preload("Car").Where("customer_id = ?", customerID).
		Order("request_date DESC").Limit(limit).Offset(offset).Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase requests for customer #%d: %w", customerID, err)
	}
	return requests, nil
}
