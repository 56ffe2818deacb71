package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	"github.com/yourusername/dealership-api/internal/domain/repository"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// SaleInput carries everything needed to record a sale.
type SaleInput struct {
	CarID         uint    `json:"car_id"`
	CustomerID    uint    `json:"customer_id"`
	EmployeeID    uint    `json:"employee_id"`
	SalePrice     float64 `json:"sale_price"`
	PaymentMethod string  `json:"payment_method"`
	Notes         string  `json:"notes"`
}

// SaleService records completed sales and marks the sold car unavailable.
type SaleService struct {
	saleRepo     repository.SaleRepository
	userRepo     repository.UserRepository
	employeeRepo repository.EmployeeRepository
	carService   *CarService
	notifier     Notifier
}

// NewSaleService creates a new sale service.
func NewSaleService(
	saleRepo repository.SaleRepository,
	userRepo repository.UserRepository,
	employeeRepo repository.EmployeeRepository,
	carService *CarService,
	notifier Notifier,
) *SaleService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &SaleService{
		saleRepo:     saleRepo,
		userRepo:     userRepo,
		employeeRepo: employeeRepo,
		carService:   carService,
		notifier:     notifier,
	}
}

// Create records a sale. The car must be available and the employee
// active; the car is marked sold as part of the operation.
func (s *SaleService) Create(input SaleInput) (*entity.Sale, error) {
	if input.CarID == 0 || input.CustomerID == 0 || input.EmployeeID == 0 {
		return nil, fmt.Errorf("%w: car_id, customer_id and employee_id are required", apperrors.ErrValidation)
	}
	if input.SalePrice <= 0 {
		return nil, fmt.Errorf("%w: sale_price must be positive", apperrors.ErrValidation)
	}

	if _, err := s.userRepo.GetByID(input.CustomerID); err != nil {
		return nil, fmt.Errorf("customer lookup failed: %w", err)
	}
	employee, err := s.employeeRepo.GetByID(input.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("employee lookup failed: %w", err)
	}
	if !employee.IsActive {
		return nil, fmt.Errorf("%w: employee #%d", ErrEmployeeInactive, employee.ID)
	}

	now := time.Now()
	if _, err := s.carService.MarkSold(input.CarID, now); err != nil {
		return nil, err
	}

	sale := &entity.Sale{
		CarID:         input.CarID,
		CustomerID:    input.CustomerID,
		EmployeeID:    input.EmployeeID,
		SalePrice:     input.SalePrice,
		SaleDate:      now,
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
		Notes:         strings.TrimSpace(input.Notes),
	}
	if err := s.saleRepo.Create(sale); err != nil {
		return nil, err
	}

	s.notifier.Broadcast(EventSaleCompleted, sale)
	return sale, nil
}

// Get returns one sale with its associations.
func (s *SaleService) Get(id uint) (*entity.Sale, error) {
	return s.saleRepo.GetByID(id)
}

// List returns sales with pagination.
func (s *SaleService) List(limit, offset int) ([]entity.Sale, int64, error) {
	return s.saleRepo.List(limit, offset)
}

// ListByCustomer returns one customer's sales.
func (s *SaleService) ListByCustomer(customerID uint, limit, offset int) ([]entity.Sale, error) {
	return s.saleRepo.ListByCustomer(customerID, limit, offset)
}

// ListByEmployee returns sales closed by one employee.
func (s *SaleService) ListByEmployee(employeeID uint, limit, offset int) ([]entity.Sale, error) {
	return s.saleRepo.ListByEmployee(employeeID, limit, offset)
}
