package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
	"github.com/yourusername/dealership-api/internal/service"
)

// SaleHandler serves the sales endpoints, including the XLSX report
// download for staff.
type SaleHandler struct {
	saleService *service.SaleService
}

func NewSaleHandler(saleService *service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// CreateSaleRequest records a completed vehicle purchase.
type CreateSaleRequest struct {
	CarID         uint    `json:"car_id" binding:"required"`
	CustomerID    uint    `json:"customer_id" binding:"required"`
	EmployeeID    uint    `json:"employee_id" binding:"required"`
	SalePrice     float64 `json:"sale_price" binding:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" binding:"omitempty,max=50"`
	Notes         string  `json:"notes" binding:"omitempty,max=500"`
}

// Create handles POST /api/sales (staff).
func (h *SaleHandler) Create(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sale, err := h.saleService.Create(service.SaleInput{
		CarID:         req.CarID,
		CustomerID:    req.CustomerID,
		EmployeeID:    req.EmployeeID,
		SalePrice:     req.SalePrice,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Car, customer or employee not found"})
			return
		}
		if errors.Is(err, service.ErrCarUnavailable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Car is no longer available"})
			return
		}
		if errors.Is(err, service.ErrEmployeeInactive) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Employee is not active"})
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[SaleHandler] create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record sale"})
		return
	}

	c.JSON(http.StatusCreated, sale)
}

// Get handles GET /api/sales/:id (staff).
func (h *SaleHandler) Get(c *gin.Context) {
	id := c.MustGet("sale_id").(uint)

	sale, err := h.saleService.Get(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sale"})
		return
	}

	c.JSON(http.StatusOK, sale)
}

// List handles GET /api/sales (staff). Optional customer_id or
// employee_id query parameters narrow the ledger to one party.
func (h *SaleHandler) List(c *gin.Context) {
	limit, offset := paginationParams(c)

	if raw := c.Query("customer_id"); raw != "" {
		customerID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer_id"})
			return
		}
		sales, err := h.saleService.ListByCustomer(uint(customerID), limit, offset)
		if err != nil {
			log.Printf("[SaleHandler] list by customer failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sales"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sales": sales})
		return
	}

	if raw := c.Query("employee_id"); raw != "" {
		employeeID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee_id"})
			return
		}
		sales, err := h.saleService.ListByEmployee(uint(employeeID), limit, offset)
		if err != nil {
			log.Printf("[SaleHandler] list by employee failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sales"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sales": sales})
		return
	}

	sales, total, err := h.saleService.List(limit, offset)
	if err != nil {
		log.Printf("[SaleHandler] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sales"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sales": sales, "total": total})
}

// Report handles GET /api/sales/report (staff): an XLSX download of the
// sales ledger, streamed row by row.
func (h *SaleHandler) Report(c *gin.Context) {
	// The report is bounded to keep the response memory footprint flat.
	sales, _, err := h.saleService.List(10000, 0)
	if err != nil {
		log.Printf("[SaleHandler] report query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	filename := fmt.Sprintf("sales_report_%s", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sales"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[SaleHandler] failed to create stream writer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Sale ID", "Date", "Vehicle", "VIN", "Customer", "Employee", "Price", "Payment Method", "Notes"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[SaleHandler] failed to write headers: %v", err)
	}

	for i, s := range sales {
		rowNum := i + 2
		cell := fmt.Sprintf("A%d", rowNum)

		vehicle := ""
		vin := ""
		if s.Car != nil {
			vehicle = fmt.Sprintf("%d %s %s", s.Car.Year, s.Car.Make, s.Car.Model)
			vin = s.Car.VIN
		}
		customer := ""
		if s.Customer != nil {
			customer = sanitizeForExcel(s.Customer.FullName())
		}
		employee := ""
		if s.Employee != nil {
			employee = sanitizeForExcel(s.Employee.FirstName + " " + s.Employee.LastName)
		}

		row := []interface{}{
			s.ID,
			s.SaleDate.Format("2006-01-02"),
			sanitizeForExcel(vehicle),
			vin,
			customer,
			employee,
			s.SalePrice,
			sanitizeForExcel(s.PaymentMethod),
			sanitizeForExcel(s.Notes),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[SaleHandler] failed to write row %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[SaleHandler] stream writer flush failed: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[SaleHandler] failed to write Excel response: %v", err)
	}
}

// sanitizeForExcel guards exported values against formula injection.
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
