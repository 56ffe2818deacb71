package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	"github.com/yourusername/dealership-api/internal/domain/repository"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
	"github.com/yourusername/dealership-api/pkg/auth"
)

// RegisterInput contains everything needed to create an account. It is
// also the shape serialized into the OTP payload for the "Register"
// purpose, so json tags define the deferred-action wire format.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
}

// UserView is the public projection of an account returned to clients.
type UserView struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	ZipCode     string    `json:"zip_code"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthResult is the outcome of a successful login or registration.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *UserView `json:"user"`
}

// AuthService is the identity provider: it creates accounts, checks
// credentials and issues session tokens. The OTP dispatcher consumes it
// through the IdentityProvider interface.
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for AuthService")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for AuthService")
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}, nil
}

// Register creates a customer account and returns a session.
func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	user, err := s.CreateAccount(input)
	if err != nil {
		return nil, err
	}
	return s.issueSession(user)
}

// CreateAccount validates the input and persists a new customer. The
// bcrypt hashing happens in the User.BeforeSave hook.
func (s *AuthService) CreateAccount(input RegisterInput) (*entity.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", apperrors.ErrValidation)
	}
	if len(input.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", apperrors.ErrValidation)
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, fmt.Errorf("%w: first_name and last_name are required", apperrors.ErrValidation)
	}

	user := &entity.User{
		Email:       input.Email,
		Password:    input.Password,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Address:     strings.TrimSpace(input.Address),
		City:        strings.TrimSpace(input.City),
		State:       strings.TrimSpace(input.State),
		ZipCode:     strings.TrimSpace(input.ZipCode),
		Role:        entity.RoleCustomer,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	log.Printf("[AuthService] account created: id=%d email=%s", user.ID, user.Email)
	return user, nil
}

// Login checks the email/password pair and returns a session.
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(normalizeEmail(email))
	if err != nil {
		// Do not reveal whether the email exists.
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}
	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}
	return s.issueSession(user)
}

// FindByEmail returns the account for an email, or ErrNotFound.
func (s *AuthService) FindByEmail(email string) (*entity.User, error) {
	return s.userRepo.GetByEmail(normalizeEmail(email))
}

// GetByID returns the account by id, or ErrNotFound.
func (s *AuthService) GetByID(id uint) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}

// IssueToken signs a session token for the user.
func (s *AuthService) IssueToken(user *entity.User) (string, error) {
	return s.jwtService.GenerateToken(user)
}

// PublicView maps an account to its public projection.
func (s *AuthService) PublicView(user *entity.User) *UserView {
	if user == nil {
		return nil
	}
	return &UserView{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
		Address:     user.Address,
		City:        user.City,
		State:       user.State,
		ZipCode:     user.ZipCode,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
	}
}

func (s *AuthService) issueSession(user *entity.User) (*AuthResult, error) {
	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwtService.Expiry()),
		User:      s.PublicView(user),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
