package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	"github.com/yourusername/dealership-api/internal/domain/repository"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// PurchaseRequestInput is the deferred-action shape for the
// "PurchaseRequest" OTP purpose: the handler serializes it into the OTP
// payload at issuance and executes it here after verification.
type PurchaseRequestInput struct {
	CarID          uint    `json:"car_id"`
	RequestedPrice float64 `json:"requested_price"`
	Message        string  `json:"message"`
}

// PurchaseRequestService manages the purchase-request workflow.
type PurchaseRequestService struct {
	requestRepo repository.PurchaseRequestRepository
	carRepo     repository.CarRepository
	notifier    Notifier
}

// NewPurchaseRequestService creates a new purchase-request service.
func NewPurchaseRequestService(
	requestRepo repository.PurchaseRequestRepository,
	carRepo repository.CarRepository,
	notifier Notifier,
) *PurchaseRequestService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &PurchaseRequestService{
		requestRepo: requestRepo,
		carRepo:     carRepo,
		notifier:    notifier,
	}
}

// Create records a customer's offer on a vehicle. The car must exist and
// still be available.
func (s *PurchaseRequestService) Create(customerID uint, input PurchaseRequestInput) (*entity.PurchaseRequest, error) {
	if input.CarID == 0 {
		return nil, fmt.Errorf("%w: car_id is required", apperrors.ErrValidation)
	}
	if input.RequestedPrice <= 0 {
		return nil, fmt.Errorf("%w: requested_price must be positive", apperrors.ErrValidation)
	}

	car, err := s.carRepo.GetByID(input.CarID)
	if err != nil {
		return nil, err
	}
	if !car.IsAvailable {
		return nil, fmt.Errorf("%w: car #%d", ErrCarUnavailable, car.ID)
	}

	request := &entity.PurchaseRequest{
		CarID:          input.CarID,
		CustomerID:     customerID,
		RequestedPrice: input.RequestedPrice,
		Message:        strings.TrimSpace(input.Message),
		RequestDate:    time.Now(),
		Status:         entity.PurchaseRequestPending,
	}
	if err := s.requestRepo.Create(request); err != nil {
		return nil, err
	}

	s.notifier.Broadcast(EventPurchaseRequestCreated, request)
	return request, nil
}

// Get returns one purchase request.
func (s *PurchaseRequestService) Get(id uint) (*entity.PurchaseRequest, error) {
	return s.requestRepo.GetByID(id)
}

// List returns purchase requests, optionally filtered by status.
func (s *PurchaseRequestService) List(status string, limit, offset int) ([]entity.PurchaseRequest, int64, error) {
	if status != "" && !entity.IsValidPurchaseRequestStatus(status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}
	return s.requestRepo.List(status, limit, offset)
}

// ListByCustomer returns one customer's purchase requests.
func (s *PurchaseRequestService) ListByCustomer(customerID uint, limit, offset int) ([]entity.PurchaseRequest, error) {
	return s.requestRepo.ListByCustomer(customerID, limit, offset)
}

// UpdateStatus moves a request through the workflow. Terminal requests
// (rejected or completed) cannot change status again.
func (s *PurchaseRequestService) UpdateStatus(id uint, status, adminNotes string) (*entity.PurchaseRequest, error) {
	if !entity.IsValidPurchaseRequestStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}

	request, err := s.requestRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if request.Status == entity.PurchaseRequestRejected || request.Status == entity.PurchaseRequestCompleted {
		return nil, fmt.Errorf("%w: request #%d is already %s", ErrInvalidStatusChange, id, request.Status)
	}

	request.Status = status
	if notes := strings.TrimSpace(adminNotes); notes != "" {
		request.AdminNotes = notes
	}
	if err := s.requestRepo.Update(request); err != nil {
		return nil, err
	}

	s.notifier.Broadcast(EventPurchaseRequestUpdated, request)
	return request, nil
}
