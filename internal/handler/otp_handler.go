package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
	"github.com/yourusername/dealership-api/internal/service"
)

// OtpHandler exposes the one-time passcode endpoints.
type OtpHandler struct {
	otpService *service.OtpService
}

func NewOtpHandler(otpService *service.OtpService) *OtpHandler {
	return &OtpHandler{otpService: otpService}
}

// GenerateOtpRequest asks for a new code. Payload is an opaque string
// stored with the code and echoed back on successful verification.
type GenerateOtpRequest struct {
	Email   string  `json:"email" binding:"required,email"`
	Purpose string  `json:"purpose" binding:"required,max=50"`
	Payload *string `json:"payload" binding:"omitempty,max=500"`
}

// VerifyOtpRequest submits a code for verification.
type VerifyOtpRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Code    string `json:"code" binding:"required,len=6"`
	Purpose string `json:"purpose" binding:"required,max=50"`
}

// Generate handles POST /api/otp/generate.
func (h *OtpHandler) Generate(c *gin.Context) {
	var req GenerateOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.otpService.Generate(c.Request.Context(), req.Email, req.Purpose, req.Payload)
	if err != nil {
		if errors.Is(err, service.ErrOtpAlreadyPending) {
			// The refusal still carries expiry and attempts so clients
			// can render a countdown.
			c.JSON(http.StatusBadRequest, result)
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[OtpHandler] generate failed for %s (%s): %v", req.Email, req.Purpose, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OTP"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Verify handles POST /api/otp/verify. Failed verifications (wrong code,
// expiry, exhaustion) are reported with 400 and the full result body so
// clients see the reason and attempts remaining.
func (h *OtpHandler) Verify(c *gin.Context) {
	var req VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.otpService.Verify(c.Request.Context(), req.Email, req.Code, req.Purpose)
	if err != nil {
		if result != nil {
			// Classified refusal (not found, expired, exhausted, wrong
			// code): the body carries the reason and attempts remaining.
			c.JSON(http.StatusBadRequest, result)
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[OtpHandler] verify failed for %s (%s): %v", req.Email, req.Purpose, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify OTP"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Validate handles GET /api/otp/validate. It reports whether an active
// code exists for (email, purpose) without consuming an attempt.
func (h *OtpHandler) Validate(c *gin.Context) {
	email := c.Query("email")
	purpose := c.Query("purpose")
	if email == "" || purpose == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and purpose query parameters are required"})
		return
	}

	active, err := h.otpService.IsActive(c.Request.Context(), email, purpose)
	if err != nil {
		log.Printf("[OtpHandler] validate failed for %s (%s): %v", email, purpose, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate OTP"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_active": active})
}
