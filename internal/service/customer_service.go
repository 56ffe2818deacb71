package service

import (
	"fmt"
	"strings"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	"github.com/yourusername/dealership-api/internal/domain/repository"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// CustomerUpdateInput carries the customer-editable profile fields.
type CustomerUpdateInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
}

// CustomerService manages customer accounts. Customers are users with the
// "customer" role; identity creation lives in AuthService.
type CustomerService struct {
	userRepo repository.UserRepository
}

// NewCustomerService creates a new customer service.
func NewCustomerService(userRepo repository.UserRepository) *CustomerService {
	return &CustomerService{userRepo: userRepo}
}

// List returns customer accounts.
func (s *CustomerService) List(limit, offset int) ([]entity.User, int64, error) {
	return s.userRepo.ListByRole(entity.RoleCustomer, limit, offset)
}

// Get returns one customer account.
func (s *CustomerService) Get(id uint) (*entity.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user.Role != entity.RoleCustomer {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

// Update applies profile changes to a customer account.
func (s *CustomerService) Update(id uint, input CustomerUpdateInput) (*entity.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, fmt.Errorf("%w: first_name and last_name are required", apperrors.ErrValidation)
	}

	user.FirstName = strings.TrimSpace(input.FirstName)
	user.LastName = strings.TrimSpace(input.LastName)
	user.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	user.Address = strings.TrimSpace(input.Address)
	user.City = strings.TrimSpace(input.City)
	user.State = strings.TrimSpace(input.State)
	user.ZipCode = strings.TrimSpace(input.ZipCode)

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a customer account.
func (s *CustomerService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.userRepo.Delete(id)
}
