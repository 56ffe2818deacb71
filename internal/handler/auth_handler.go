package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
	"github.com/yourusername/dealership-api/internal/service"
)

// AuthHandler handles password-based registration and login. The
// OTP-mediated flow lives on the OTP endpoints; verification with the
// Login or Register purpose returns the same AuthResult shape.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest mirrors service.RegisterInput with binding rules.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6,max=100"`
	FirstName   string `json:"first_name" binding:"required,max=50"`
	LastName    string `json:"last_name" binding:"required,max=50"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=20"`
	Address     string `json:"address" binding:"omitempty,max=200"`
	City        string `json:"city" binding:"omitempty,max=50"`
	State       string `json:"state" binding:"omitempty,max=50"`
	ZipCode     string `json:"zip_code" binding:"omitempty,max=10"`
}

// LoginRequest carries password credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (r RegisterRequest) toInput() service.RegisterInput {
	return service.RegisterInput{
		Email:       r.Email,
		Password:    r.Password,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
		City:        r.City,
		State:       r.State,
		ZipCode:     r.ZipCode,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Register(req.toInput())
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[AuthHandler] registration failed for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	log.Printf("[AuthHandler] user ID=%d (%s) registered", result.User.ID, result.User.Email)
	c.JSON(http.StatusCreated, result)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		log.Printf("[AuthHandler] login failed for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Me handles GET /api/auth/me for the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	user, err := h.authService.GetByID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, h.authService.PublicView(user))
}
