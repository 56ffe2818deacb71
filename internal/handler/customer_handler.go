package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
	"github.com/yourusername/dealership-api/internal/service"
)

// CustomerHandler serves the staff-facing customer directory.
type CustomerHandler struct {
	customerService *service.CustomerService
	authService     *service.AuthService
}

func NewCustomerHandler(customerService *service.CustomerService, authService *service.AuthService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, authService: authService}
}

// UpdateCustomerRequest carries the editable profile fields.
type UpdateCustomerRequest struct {
	FirstName   string `json:"first_name" binding:"required,max=50"`
	LastName    string `json:"last_name" binding:"required,max=50"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=20"`
	Address     string `json:"address" binding:"omitempty,max=200"`
	City        string `json:"city" binding:"omitempty,max=50"`
	State       string `json:"state" binding:"omitempty,max=50"`
	ZipCode     string `json:"zip_code" binding:"omitempty,max=10"`
}

// List handles GET /api/customers (staff).
func (h *CustomerHandler) List(c *gin.Context) {
	limit, offset := paginationParams(c)

	customers, total, err := h.customerService.List(limit, offset)
	if err != nil {
		log.Printf("[CustomerHandler] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list customers"})
		return
	}

	views := make([]*service.UserView, 0, len(customers))
	for i := range customers {
		views = append(views, h.authService.PublicView(&customers[i]))
	}

	c.JSON(http.StatusOK, gin.H{"customers": views, "total": total})
}

// Get handles GET /api/customers/:id (staff).
func (h *CustomerHandler) Get(c *gin.Context) {
	id := c.MustGet("customer_id").(uint)

	customer, err := h.customerService.Get(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load customer"})
		return
	}

	c.JSON(http.StatusOK, h.authService.PublicView(customer))
}

// Update handles PUT /api/customers/:id (staff).
func (h *CustomerHandler) Update(c *gin.Context) {
	id := c.MustGet("customer_id").(uint)

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.customerService.Update(id, service.CustomerUpdateInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[CustomerHandler] update failed for customer %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	c.JSON(http.StatusOK, h.authService.PublicView(customer))
}

// Delete handles DELETE /api/customers/:id (admin).
func (h *CustomerHandler) Delete(c *gin.Context) {
	id := c.MustGet("customer_id").(uint)

	if err := h.customerService.Delete(id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		log.Printf("[CustomerHandler] delete failed for customer %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}

	c.Status(http.StatusNoContent)
}
