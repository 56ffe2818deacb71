package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/dealership-api/internal/domain/entity"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
	"github.com/yourusername/dealership-api/internal/service"
)

// PurchaseRequestHandler serves the purchase-request workflow. Creation
// is OTP-gated: the customer's offer is stored as the OTP payload and
// executed only after verification.
type PurchaseRequestHandler struct {
	requestService *service.PurchaseRequestService
	otpService     *service.OtpService
}

func NewPurchaseRequestHandler(
	requestService *service.PurchaseRequestService,
	otpService *service.OtpService,
) *PurchaseRequestHandler {
	return &PurchaseRequestHandler{
		requestService: requestService,
		otpService:     otpService,
	}
}

// CreatePurchaseRequestRequest is the customer's offer on a vehicle.
type CreatePurchaseRequestRequest struct {
	CarID          uint    `json:"car_id" binding:"required"`
	RequestedPrice float64 `json:"requested_price" binding:"required,gt=0"`
	Message        string  `json:"message" binding:"omitempty,max=1000"`
}

// UpdatePurchaseRequestStatusRequest moves a request through the workflow.
type UpdatePurchaseRequestStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	AdminNotes string `json:"admin_notes" binding:"omitempty,max=1000"`
}

// purchasePayload is the deferred-action shape for the PurchaseRequest
// purpose. CustomerID is captured at issuance so verification cannot
// create a request on behalf of someone else.
type purchasePayload struct {
	CustomerID uint                         `json:"customer_id"`
	Input      service.PurchaseRequestInput `json:"input"`
}

// RequestOtp handles POST /api/purchase-requests/request-otp.
func (h *PurchaseRequestHandler) RequestOtp(c *gin.Context) {
	customerID := c.MustGet("user_id").(uint)
	email := c.MustGet("email").(string)

	var req CreatePurchaseRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := json.Marshal(purchasePayload{
		CustomerID: customerID,
		Input: service.PurchaseRequestInput{
			CarID:          req.CarID,
			RequestedPrice: req.RequestedPrice,
			Message:        req.Message,
		},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare request"})
		return
	}
	payload := string(raw)

	result, err := h.otpService.Generate(c.Request.Context(), email, entity.OtpPurposePurchaseRequest, &payload)
	if err != nil {
		if errors.Is(err, service.ErrOtpAlreadyPending) {
			c.JSON(http.StatusBadRequest, result)
			return
		}
		log.Printf("[PurchaseRequestHandler] otp request failed for user %d: %v", customerID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OTP"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyOtp handles POST /api/purchase-requests/verify-otp: it verifies
// the code and creates the purchase request stored in the payload.
func (h *PurchaseRequestHandler) VerifyOtp(c *gin.Context) {
	customerID := c.MustGet("user_id").(uint)

	var req VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.otpService.Verify(c.Request.Context(), req.Email, req.Code, entity.OtpPurposePurchaseRequest)
	if err != nil {
		if result != nil {
			c.JSON(http.StatusBadRequest, result)
			return
		}
		log.Printf("[PurchaseRequestHandler] otp verify failed for user %d: %v", customerID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify OTP"})
		return
	}

	if result.Payload == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase request data"})
		return
	}

	var payload purchasePayload
	if err := json.Unmarshal([]byte(*result.Payload), &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase request data format"})
		return
	}

	if payload.CustomerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "OTP was issued for a different account"})
		return
	}

	request, err := h.requestService.Create(payload.CustomerID, payload.Input)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
			return
		}
		if errors.Is(err, service.ErrCarUnavailable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Car is no longer available"})
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[PurchaseRequestHandler] create failed for user %d: %v", customerID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create purchase request"})
		return
	}

	c.JSON(http.StatusCreated, request)
}

// List handles GET /api/purchase-requests (staff). The optional status
// query narrows to one workflow state.
func (h *PurchaseRequestHandler) List(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !entity.IsValidPurchaseRequestStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	limit, offset := paginationParams(c)

	requests, total, err := h.requestService.List(status, limit, offset)
	if err != nil {
		log.Printf("[PurchaseRequestHandler] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list purchase requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchase_requests": requests, "total": total})
}

// ListMine handles GET /api/purchase-requests/my-requests.
func (h *PurchaseRequestHandler) ListMine(c *gin.Context) {
	customerID := c.MustGet("user_id").(uint)

	limit, offset := paginationParams(c)

	requests, err := h.requestService.ListByCustomer(customerID, limit, offset)
	if err != nil {
		log.Printf("[PurchaseRequestHandler] list mine failed for user %d: %v", customerID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list purchase requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchase_requests": requests})
}

// Get handles GET /api/purchase-requests/:id. Customers can only read
// their own requests; staff can read any.
func (h *PurchaseRequestHandler) Get(c *gin.Context) {
	id := c.MustGet("request_id").(uint)
	userID := c.MustGet("user_id").(uint)
	role := c.MustGet("role").(string)

	request, err := h.requestService.Get(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load purchase request"})
		return
	}

	if role == entity.RoleCustomer && request.CustomerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, request)
}

// UpdateStatus handles PUT /api/purchase-requests/:id/status (staff).
func (h *PurchaseRequestHandler) UpdateStatus(c *gin.Context) {
	id := c.MustGet("request_id").(uint)

	var req UpdatePurchaseRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.requestService.UpdateStatus(id, req.Status, req.AdminNotes)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase request not found"})
			return
		}
		if errors.Is(err, service.ErrInvalidStatusChange) || errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[PurchaseRequestHandler] status update failed for request %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update purchase request"})
		return
	}

	c.JSON(http.StatusOK, request)
}
