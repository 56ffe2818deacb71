package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/dealership-api/internal/domain/entity"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
	"github.com/yourusername/dealership-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubOtpRepo mocks repository.OtpRepository so handler tests drive the
// real service without a database.
type stubOtpRepo struct {
	mock.Mock
}

func (m *stubOtpRepo) Create(ctx context.Context, code *entity.OtpCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *stubOtpRepo) GetActive(ctx context.Context, email, purpose string, now time.Time) (*entity.OtpCode, error) {
	args := m.Called(ctx, email, purpose, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OtpCode), args.Error(1)
}

func (m *stubOtpRepo) GetUnconsumed(ctx context.Context, email, purpose string) (*entity.OtpCode, error) {
	args := m.Called(ctx, email, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OtpCode), args.Error(1)
}

func (m *stubOtpRepo) IncrementAttempts(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *stubOtpRepo) Consume(ctx context.Context, id uint, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *stubOtpRepo) DeleteDead(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type stubIdentity struct{}

func (stubIdentity) FindByEmail(email string) (*entity.User, error) { return nil, apperrors.ErrNotFound }
func (stubIdentity) CreateAccount(input service.RegisterInput) (*entity.User, error) {
	return nil, apperrors.ErrValidation
}
func (stubIdentity) IssueToken(user *entity.User) (string, error) { return "", nil }
func (stubIdentity) PublicView(user *entity.User) *service.UserView { return nil }

func newOtpHandlerWithRepo(t *testing.T, repo *stubOtpRepo) *OtpHandler {
	t.Helper()
	svc, err := service.NewOtpService(repo, stubIdentity{}, &service.LogDeliverySink{}, 5*time.Minute, 3)
	require.NoError(t, err)
	return NewOtpHandler(svc)
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func otpRouter(h *OtpHandler) *gin.Engine {
	router := gin.New()
	router.POST("/api/otp/generate", h.Generate)
	router.POST("/api/otp/verify", h.Verify)
	router.GET("/api/otp/validate", h.Validate)
	return router
}

func TestOtpGenerate_Success(t *testing.T) {
	repo := new(stubOtpRepo)
	repo.On("DeleteDead", mock.Anything, mock.Anything).Return(int64(0), nil)
	repo.On("GetActive", mock.Anything, "a@b.com", "Login", mock.Anything).
		Return(nil, apperrors.ErrNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	router := otpRouter(newOtpHandlerWithRepo(t, repo))
	w := performJSON(t, router, "POST", "/api/otp/generate", map[string]string{
		"email":   "a@b.com",
		"purpose": "Login",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "OTP sent successfully. Check your console for the code.", resp["message"])
}

func TestOtpGenerate_AlreadyPending(t *testing.T) {
	repo := new(stubOtpRepo)
	existing := &entity.OtpCode{
		ID:          1,
		Email:       "a@b.com",
		Purpose:     "Login",
		ExpiresAt:   time.Now().Add(3 * time.Minute),
		Attempts:    1,
		MaxAttempts: 3,
	}
	repo.On("DeleteDead", mock.Anything, mock.Anything).Return(int64(0), nil)
	repo.On("GetActive", mock.Anything, "a@b.com", "Login", mock.Anything).
		Return(existing, nil)

	router := otpRouter(newOtpHandlerWithRepo(t, repo))
	w := performJSON(t, router, "POST", "/api/otp/generate", map[string]string{
		"email":   "a@b.com",
		"purpose": "Login",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, float64(2), resp["attempts_remaining"])
}

func TestOtpGenerate_ValidationErrors(t *testing.T) {
	router := otpRouter(&OtpHandler{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", nil},
		{"missing purpose", map[string]string{"email": "a@b.com"}},
		{"bad email", map[string]string{"email": "nope", "purpose": "Login"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(t, router, "POST", "/api/otp/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestOtpVerify_WrongCode(t *testing.T) {
	repo := new(stubOtpRepo)
	record := &entity.OtpCode{
		ID:          1,
		Code:        "123456",
		Email:       "a@b.com",
		Purpose:     "PurchaseRequest",
		ExpiresAt:   time.Now().Add(3 * time.Minute),
		Attempts:    0,
		MaxAttempts: 3,
	}
	repo.On("GetUnconsumed", mock.Anything, "a@b.com", "PurchaseRequest").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(1)).Return(nil)

	router := otpRouter(newOtpHandlerWithRepo(t, repo))
	w := performJSON(t, router, "POST", "/api/otp/verify", map[string]string{
		"email":   "a@b.com",
		"code":    "000000",
		"purpose": "PurchaseRequest",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["is_valid"])
	assert.Equal(t, "Invalid OTP. 2 attempts remaining.", resp["message"])
}

func TestOtpVerify_CorrectCodeReturnsPayload(t *testing.T) {
	repo := new(stubOtpRepo)
	payload := `{"car_id":7}`
	record := &entity.OtpCode{
		ID:          1,
		Code:        "123456",
		Email:       "a@b.com",
		Purpose:     "PurchaseRequest",
		Payload:     &payload,
		ExpiresAt:   time.Now().Add(3 * time.Minute),
		MaxAttempts: 3,
	}
	repo.On("GetUnconsumed", mock.Anything, "a@b.com", "PurchaseRequest").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(1)).Return(nil)
	repo.On("Consume", mock.Anything, uint(1), mock.Anything).Return(true, nil)

	router := otpRouter(newOtpHandlerWithRepo(t, repo))
	w := performJSON(t, router, "POST", "/api/otp/verify", map[string]string{
		"email":   "a@b.com",
		"code":    "123456",
		"purpose": "PurchaseRequest",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["is_valid"])
	assert.Equal(t, payload, resp["payload"])
}

func TestOtpValidate(t *testing.T) {
	repo := new(stubOtpRepo)
	repo.On("GetActive", mock.Anything, "a@b.com", "Login", mock.Anything).
		Return(nil, apperrors.ErrNotFound)

	router := otpRouter(newOtpHandlerWithRepo(t, repo))

	w := performJSON(t, router, "GET", "/api/otp/validate?email=a@b.com&purpose=Login", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["is_active"])

	// Missing parameters are rejected before touching the service.
	w = performJSON(t, router, "GET", "/api/otp/validate?email=a@b.com", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
