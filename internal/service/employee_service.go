package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	"github.com/yourusername/dealership-api/internal/domain/repository"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// EmployeeInput carries the mutable staff fields.
type EmployeeInput struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Position    string  `json:"position"`
	Salary      float64 `json:"salary"`
}

// EmployeeService manages staff records.
type EmployeeService struct {
	employeeRepo repository.EmployeeRepository
}

// NewEmployeeService creates a new employee service.
func NewEmployeeService(employeeRepo repository.EmployeeRepository) *EmployeeService {
	return &EmployeeService{employeeRepo: employeeRepo}
}

// List returns employees.
func (s *EmployeeService) List(onlyActive bool, limit, offset int) ([]entity.Employee, int64, error) {
	return s.employeeRepo.List(onlyActive, limit, offset)
}

// Get returns one employee.
func (s *EmployeeService) Get(id uint) (*entity.Employee, error) {
	return s.employeeRepo.GetByID(id)
}

// Create hires a new employee.
func (s *EmployeeService) Create(input EmployeeInput) (*entity.Employee, error) {
	if err := validateEmployeeInput(input); err != nil {
		return nil, err
	}

	employee := &entity.Employee{
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Email:       normalizeEmail(input.Email),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Position:    strings.TrimSpace(input.Position),
		Salary:      input.Salary,
		HireDate:    time.Now(),
		IsActive:    true,
	}
	if err := s.employeeRepo.Create(employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// Update applies new field values to an existing employee.
func (s *EmployeeService) Update(id uint, input EmployeeInput) (*entity.Employee, error) {
	if err := validateEmployeeInput(input); err != nil {
		return nil, err
	}

	employee, err := s.employeeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	employee.FirstName = strings.TrimSpace(input.FirstName)
	employee.LastName = strings.TrimSpace(input.LastName)
	employee.Email = normalizeEmail(input.Email)
	employee.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	employee.Position = strings.TrimSpace(input.Position)
	employee.Salary = input.Salary

	if err := s.employeeRepo.Update(employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// Deactivate terminates an employee without deleting the record.
func (s *EmployeeService) Deactivate(id uint) (*entity.Employee, error) {
	employee, err := s.employeeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !employee.IsActive {
		return employee, nil
	}

	now := time.Now()
	employee.IsActive = false
	employee.TerminationDate = &now

	if err := s.employeeRepo.Update(employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// Delete removes an employee record entirely.
func (s *EmployeeService) Delete(id uint) error {
	return s.employeeRepo.Delete(id)
}

func validateEmployeeInput(input EmployeeInput) error {
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return fmt.Errorf("%w: first_name and last_name are required", apperrors.ErrValidation)
	}
	if !strings.Contains(input.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(input.Position) == "" {
		return fmt.Errorf("%w: position is required", apperrors.ErrValidation)
	}
	if input.Salary <= 0 {
		return fmt.Errorf("%w: salary must be positive", apperrors.ErrValidation)
	}
	return nil
}
