package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
	"github.com/yourusername/dealership-api/internal/service"
)

// EmployeeHandler serves the staff-management endpoints (admin only).
type EmployeeHandler struct {
	employeeService *service.EmployeeService
}

func NewEmployeeHandler(employeeService *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService}
}

// EmployeeRequest carries the staff fields for create and update.
type EmployeeRequest struct {
	FirstName   string  `json:"first_name" binding:"required,max=100"`
	LastName    string  `json:"last_name" binding:"required,max=100"`
	Email       string  `json:"email" binding:"required,email"`
	PhoneNumber string  `json:"phone_number" binding:"omitempty,max=20"`
	Position    string  `json:"position" binding:"required,max=100"`
	Salary      float64 `json:"salary" binding:"required,gt=0"`
}

func (r EmployeeRequest) toInput() service.EmployeeInput {
	return service.EmployeeInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Position:    r.Position,
		Salary:      r.Salary,
	}
}

// List handles GET /api/employees.
func (h *EmployeeHandler) List(c *gin.Context) {
	onlyActive := c.Query("active") == "true"
	limit, offset := paginationParams(c)

	employees, total, err := h.employeeService.List(onlyActive, limit, offset)
	if err != nil {
		log.Printf("[EmployeeHandler] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list employees"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"employees": employees, "total": total})
}

// Get handles GET /api/employees/:id.
func (h *EmployeeHandler) Get(c *gin.Context) {
	id := c.MustGet("employee_id").(uint)

	employee, err := h.employeeService.Get(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load employee"})
		return
	}

	c.JSON(http.StatusOK, employee)
}

// Create handles POST /api/employees.
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	employee, err := h.employeeService.Create(req.toInput())
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "An employee with this email already exists"})
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[EmployeeHandler] create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create employee"})
		return
	}

	c.JSON(http.StatusCreated, employee)
}

// Update handles PUT /api/employees/:id.
func (h *EmployeeHandler) Update(c *gin.Context) {
	id := c.MustGet("employee_id").(uint)

	var req EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	employee, err := h.employeeService.Update(id, req.toInput())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[EmployeeHandler] update failed for employee %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update employee"})
		return
	}

	c.JSON(http.StatusOK, employee)
}

// Deactivate handles POST /api/employees/:id/deactivate. Termination
// keeps the record for sales history instead of deleting it.
func (h *EmployeeHandler) Deactivate(c *gin.Context) {
	id := c.MustGet("employee_id").(uint)

	employee, err := h.employeeService.Deactivate(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}
		log.Printf("[EmployeeHandler] deactivate failed for employee %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate employee"})
		return
	}

	c.JSON(http.StatusOK, employee)
}

// Delete handles DELETE /api/employees/:id.
func (h *EmployeeHandler) Delete(c *gin.Context) {
	id := c.MustGet("employee_id").(uint)

	if err := h.employeeService.Delete(id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}
		log.Printf("[EmployeeHandler] delete failed for employee %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete employee"})
		return
	}

	c.Status(http.StatusNoContent)
}
