package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/dealership-api/internal/domain/entity"
	"github.com/yourusername/dealership-api/internal/domain/repository"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
	"github.com/yourusername/dealership-api/internal/service"
)

// CarHandler serves the vehicle inventory endpoints. Inventory updates
// are OTP-gated: staff request a code with the pending change as payload
// and the change is applied only after verification.
type CarHandler struct {
	carService *service.CarService
	otpService *service.OtpService
}

func NewCarHandler(carService *service.CarService, otpService *service.OtpService) *CarHandler {
	return &CarHandler{carService: carService, otpService: otpService}
}

// CarRequest carries vehicle fields for create and update.
type CarRequest struct {
	Make         string  `json:"make" binding:"required,max=100"`
	Model        string  `json:"model" binding:"required,max=100"`
	Year         int     `json:"year" binding:"required,min=1900,max=2100"`
	Color        string  `json:"color" binding:"required,max=50"`
	VIN          string  `json:"vin" binding:"required,len=17"`
	Price        float64 `json:"price" binding:"required,gt=0"`
	Mileage      int     `json:"mileage" binding:"min=0"`
	Transmission string  `json:"transmission" binding:"omitempty,max=50"`
	FuelType     string  `json:"fuel_type" binding:"omitempty,max=50"`
}

func (r CarRequest) toInput() service.CarInput {
	return service.CarInput{
		Make:         r.Make,
		Model:        r.Model,
		Year:         r.Year,
		Color:        r.Color,
		VIN:          r.VIN,
		Price:        r.Price,
		Mileage:      r.Mileage,
		Transmission: r.Transmission,
		FuelType:     r.FuelType,
	}
}

// carUpdatePayload is the deferred-action shape stored in the OTP record
// for the UpdateVehicle purpose.
type carUpdatePayload struct {
	ID    uint             `json:"id"`
	Input service.CarInput `json:"input"`
}

// List handles GET /api/cars with optional filters.
func (h *CarHandler) List(c *gin.Context) {
	filters := repository.CarFilters{
		Make:          c.Query("make"),
		Model:         c.Query("model"),
		OnlyAvailable: c.Query("available") == "true",
	}
	if v, err := strconv.Atoi(c.Query("year_from")); err == nil {
		filters.YearFrom = v
	}
	if v, err := strconv.Atoi(c.Query("year_to")); err == nil {
		filters.YearTo = v
	}
	if v, err := strconv.ParseFloat(c.Query("price_max"), 64); err == nil {
		filters.PriceMax = v
	}

	limit, offset := paginationParams(c)

	cars, total, err := h.carService.List(filters, limit, offset)
	if err != nil {
		log.Printf("[CarHandler] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cars"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cars": cars, "total": total})
}

// Get handles GET /api/cars/:id.
func (h *CarHandler) Get(c *gin.Context) {
	id := c.MustGet("car_id").(uint)

	car, err := h.carService.Get(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load car"})
		return
	}

	c.JSON(http.StatusOK, car)
}

// Create handles POST /api/cars (admin).
func (h *CarHandler) Create(c *gin.Context) {
	var req CarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	car, err := h.carService.Create(req.toInput())
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "A car with this VIN already exists"})
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[CarHandler] create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create car"})
		return
	}

	c.JSON(http.StatusCreated, car)
}

// RequestUpdateOtp handles POST /api/cars/:id/update/request-otp (admin).
// The pending change is serialized into the OTP payload so the update is
// applied only after the admin verifies the code.
func (h *CarHandler) RequestUpdateOtp(c *gin.Context) {
	id := c.MustGet("car_id").(uint)
	email := c.MustGet("email").(string)

	var req CarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The car must exist before a code is spent on it.
	if _, err := h.carService.Get(id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load car"})
		return
	}

	raw, err := json.Marshal(carUpdatePayload{ID: id, Input: req.toInput()})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare update"})
		return
	}
	payload := string(raw)

	result, err := h.otpService.Generate(c.Request.Context(), email, entity.OtpPurposeUpdateVehicle, &payload)
	if err != nil {
		if errors.Is(err, service.ErrOtpAlreadyPending) {
			c.JSON(http.StatusBadRequest, result)
			return
		}
		log.Printf("[CarHandler] update otp request failed for car %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OTP"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateWithOtp handles PUT /api/cars/update/verify-otp (admin). It
// verifies the code and applies the deferred update stored in the payload.
func (h *CarHandler) UpdateWithOtp(c *gin.Context) {
	var req VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.otpService.Verify(c.Request.Context(), req.Email, req.Code, entity.OtpPurposeUpdateVehicle)
	if err != nil {
		if result != nil {
			c.JSON(http.StatusBadRequest, result)
			return
		}
		log.Printf("[CarHandler] update otp verify failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify OTP"})
		return
	}

	if result.Payload == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update data"})
		return
	}

	var payload carUpdatePayload
	if err := json.Unmarshal([]byte(*result.Payload), &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update data format"})
		return
	}

	car, err := h.carService.Update(payload.ID, payload.Input)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[CarHandler] deferred update failed for car %d: %v", payload.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update car"})
		return
	}

	c.JSON(http.StatusOK, car)
}

// Delete handles DELETE /api/cars/:id (admin).
func (h *CarHandler) Delete(c *gin.Context) {
	id := c.MustGet("car_id").(uint)

	if err := h.carService.Delete(id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
			return
		}
		log.Printf("[CarHandler] delete failed for car %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete car"})
		return
	}

	c.Status(http.StatusNoContent)
}

// paginationParams reads limit/offset query parameters with the default
// first page of 20.
func paginationParams(c *gin.Context) (limit, offset int) {
	limit = 20
	offset = 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
