package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/dealership-api/internal/domain/entity"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// MockPurchaseRequestRepository implements repository.PurchaseRequestRepository
type MockPurchaseRequestRepository struct {
	mock.Mock
}

func (m *MockPurchaseRequestRepository) Create(request *entity.PurchaseRequest) error {
	args := m.Called(request)
	return args.Error(0)
}

func (m *MockPurchaseRequestRepository) GetByID(id uint) (*entity.PurchaseRequest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) Update(request *entity.PurchaseRequest) error {
	args := m.Called(request)
	return args.Error(0)
}

func (m *MockPurchaseRequestRepository) List(status string, limit, offset int) ([]entity.PurchaseRequest, int64, error) {
	args := m.Called(status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.PurchaseRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseRequestRepository) ListByCustomer(customerID uint, limit, offset int) ([]entity.PurchaseRequest, error) {
	args := m.Called(customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PurchaseRequest), args.Error(1)
}

func TestPurchaseRequest_Create(t *testing.T) {
	requestRepo := new(MockPurchaseRequestRepository)
	carRepo := new(MockCarRepository)
	notifier := &recordingNotifier{}
	svc := NewPurchaseRequestService(requestRepo, carRepo, notifier)

	carRepo.On("GetByID", uint(7)).Return(&entity.Car{ID: 7, IsAvailable: true}, nil)
	requestRepo.On("Create", mock.AnythingOfType("*entity.PurchaseRequest")).Return(nil)

	request, err := svc.Create(9, PurchaseRequestInput{
		CarID:          7,
		RequestedPrice: 15000,
		Message:        "  Would you take 15k?  ",
	})
	require.NoError(t, err)

	assert.Equal(t, uint(9), request.CustomerID)
	assert.Equal(t, entity.PurchaseRequestPending, request.Status)
	assert.Equal(t, "Would you take 15k?", request.Message)
	assert.Equal(t, []string{EventPurchaseRequestCreated}, notifier.events)
}

func TestPurchaseRequest_CreateCarUnavailable(t *testing.T) {
	requestRepo := new(MockPurchaseRequestRepository)
	carRepo := new(MockCarRepository)
	svc := NewPurchaseRequestService(requestRepo, carRepo, nil)

	carRepo.On("GetByID", uint(7)).Return(&entity.Car{ID: 7, IsAvailable: false}, nil)

	_, err := svc.Create(9, PurchaseRequestInput{CarID: 7, RequestedPrice: 15000})
	assert.ErrorIs(t, err, ErrCarUnavailable)
	requestRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestPurchaseRequest_CreateUnknownCar(t *testing.T) {
	requestRepo := new(MockPurchaseRequestRepository)
	carRepo := new(MockCarRepository)
	svc := NewPurchaseRequestService(requestRepo, carRepo, nil)

	carRepo.On("GetByID", uint(99)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.Create(9, PurchaseRequestInput{CarID: 99, RequestedPrice: 15000})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPurchaseRequest_UpdateStatus(t *testing.T) {
	requestRepo := new(MockPurchaseRequestRepository)
	svc := NewPurchaseRequestService(requestRepo, new(MockCarRepository), nil)

	request := &entity.PurchaseRequest{ID: 5, Status: entity.PurchaseRequestPending}
	requestRepo.On("GetByID", uint(5)).Return(request, nil)
	requestRepo.On("Update", request).Return(nil)

	updated, err := svc.UpdateStatus(5, entity.PurchaseRequestApproved, "Looks good")
	require.NoError(t, err)

	assert.Equal(t, entity.PurchaseRequestApproved, updated.Status)
	assert.Equal(t, "Looks good", updated.AdminNotes)
}

func TestPurchaseRequest_TerminalStatusLocked(t *testing.T) {
	requestRepo := new(MockPurchaseRequestRepository)
	svc := NewPurchaseRequestService(requestRepo, new(MockCarRepository), nil)

	for _, terminal := range []string{entity.PurchaseRequestRejected, entity.PurchaseRequestCompleted} {
		request := &entity.PurchaseRequest{ID: 5, Status: terminal}
		requestRepo.On("GetByID", uint(5)).Return(request, nil).Once()

		_, err := svc.UpdateStatus(5, entity.PurchaseRequestApproved, "")
		assert.ErrorIs(t, err, ErrInvalidStatusChange)
	}
}

func TestPurchaseRequest_UpdateStatusRejectsUnknown(t *testing.T) {
	svc := NewPurchaseRequestService(new(MockPurchaseRequestRepository), new(MockCarRepository), nil)

	_, err := svc.UpdateStatus(5, "Shipped", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
