package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/dealership-api/internal/domain/entity"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// ============================================================================
// Mocks
// ============================================================================

// MockOtpRepository implements repository.OtpRepository
type MockOtpRepository struct {
	mock.Mock
}

func (m *MockOtpRepository) Create(ctx context.Context, code *entity.OtpCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockOtpRepository) GetActive(ctx context.Context, email, purpose string, now time.Time) (*entity.OtpCode, error) {
	args := m.Called(ctx, email, purpose, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OtpCode), args.Error(1)
}

func (m *MockOtpRepository) GetUnconsumed(ctx context.Context, email, purpose string) (*entity.OtpCode, error) {
	args := m.Called(ctx, email, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OtpCode), args.Error(1)
}

func (m *MockOtpRepository) IncrementAttempts(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOtpRepository) Consume(ctx context.Context, id uint, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockOtpRepository) DeleteDead(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockIdentityProvider implements IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) FindByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockIdentityProvider) CreateAccount(input RegisterInput) (*entity.User, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockIdentityProvider) IssueToken(user *entity.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) PublicView(user *entity.User) *UserView {
	args := m.Called(user)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*UserView)
}

// MockDeliverySink implements DeliverySink
type MockDeliverySink struct {
	mock.Mock
}

func (m *MockDeliverySink) Deliver(ctx context.Context, email, purpose, code string, expiresAt time.Time) error {
	args := m.Called(ctx, email, purpose, code, expiresAt)
	return args.Error(0)
}

// ============================================================================
// Helpers
// ============================================================================

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestOtpService(t *testing.T, repo *MockOtpRepository, identity *MockIdentityProvider, sink *MockDeliverySink) *OtpService {
	t.Helper()
	svc, err := NewOtpService(repo, identity, sink, 5*time.Minute, 3)
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }
	return svc
}

func pendingRecord(code string, attempts int) *entity.OtpCode {
	return &entity.OtpCode{
		ID:          42,
		Code:        code,
		Email:       "buyer@test.com",
		Purpose:     entity.OtpPurposePurchaseRequest,
		CreatedAt:   testNow.Add(-time.Minute),
		ExpiresAt:   testNow.Add(4 * time.Minute),
		Attempts:    attempts,
		MaxAttempts: 3,
	}
}

// ============================================================================
// Generate
// ============================================================================

func TestGenerate_IssuesFreshCode(t *testing.T) {
	repo := new(MockOtpRepository)
	sink := new(MockDeliverySink)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), sink)

	repo.On("DeleteDead", mock.Anything, testNow).Return(int64(0), nil)
	repo.On("GetActive", mock.Anything, "buyer@test.com", "PurchaseRequest", testNow).
		Return(nil, apperrors.ErrNotFound)

	var issued *entity.OtpCode
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.OtpCode")).
		Run(func(args mock.Arguments) {
			issued = args.Get(1).(*entity.OtpCode)
		}).
		Return(nil)
	sink.On("Deliver", mock.Anything, "buyer@test.com", "PurchaseRequest", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(nil)

	payload := `{"car_id":7}`
	result, err := svc.Generate(context.Background(), "Buyer@Test.com", "PurchaseRequest", &payload)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "OTP sent successfully. Check your console for the code.", result.Message)
	assert.Equal(t, testNow.Add(5*time.Minute), result.ExpiresAt)
	assert.Equal(t, 3, result.AttemptsRemaining)

	require.NotNil(t, issued)
	assert.Equal(t, "buyer@test.com", issued.Email, "email must be normalized before storage")
	assert.Equal(t, 3, issued.MaxAttempts)
	require.NotNil(t, issued.Payload)
	assert.Equal(t, payload, *issued.Payload)

	// The code must always render as exactly six digits.
	require.Len(t, issued.Code, 6)
	n, convErr := strconv.Atoi(issued.Code)
	require.NoError(t, convErr)
	assert.GreaterOrEqual(t, n, 100000)
	assert.LessOrEqual(t, n, 999999)

	repo.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestGenerate_RefusesWhileActive(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	existing := pendingRecord("123456", 1)
	repo.On("DeleteDead", mock.Anything, testNow).Return(int64(0), nil)
	repo.On("GetActive", mock.Anything, "buyer@test.com", "PurchaseRequest", testNow).
		Return(existing, nil)

	result, err := svc.Generate(context.Background(), "buyer@test.com", "PurchaseRequest", nil)
	require.ErrorIs(t, err, ErrOtpAlreadyPending)

	assert.False(t, result.Success)
	assert.Equal(t, "An OTP has already been sent. Please wait before requesting another.", result.Message)
	assert.Equal(t, existing.ExpiresAt, result.ExpiresAt)
	assert.Equal(t, 2, result.AttemptsRemaining)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGenerate_InsertRaceLoserGetsAlreadyPending(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	repo.On("DeleteDead", mock.Anything, testNow).Return(int64(0), nil)
	repo.On("GetActive", mock.Anything, "buyer@test.com", "PurchaseRequest", testNow).
		Return(nil, apperrors.ErrNotFound)
	// The concurrent winner inserted between the check and our insert.
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.OtpCode")).
		Return(fmt.Errorf("insert otp: %w", apperrors.ErrConflict))

	result, err := svc.Generate(context.Background(), "buyer@test.com", "PurchaseRequest", nil)
	require.ErrorIs(t, err, ErrOtpAlreadyPending)
	assert.False(t, result.Success)
}

func TestGenerate_DeliveryFailureDoesNotFailIssuance(t *testing.T) {
	repo := new(MockOtpRepository)
	sink := new(MockDeliverySink)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), sink)

	repo.On("DeleteDead", mock.Anything, testNow).Return(int64(0), nil)
	repo.On("GetActive", mock.Anything, "a@b.com", "Login", testNow).
		Return(nil, apperrors.ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.OtpCode")).Return(nil)
	sink.On("Deliver", mock.Anything, "a@b.com", "Login", mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))

	result, err := svc.Generate(context.Background(), "a@b.com", "Login", nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestGenerate_RejectsMissingFields(t *testing.T) {
	svc := newTestOtpService(t, new(MockOtpRepository), new(MockIdentityProvider), new(MockDeliverySink))

	_, err := svc.Generate(context.Background(), "", "Login", nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Generate(context.Background(), "a@b.com", "   ", nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// ============================================================================
// Verify: state machine
// ============================================================================

func TestVerify_SucceedsOnceAndConsumes(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	payload := `{"car_id":7,"requested_price":15000}`
	record := pendingRecord("123456", 0)
	record.Payload = &payload

	repo.On("GetUnconsumed", mock.Anything, "buyer@test.com", "PurchaseRequest").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(42)).Return(nil)
	repo.On("Consume", mock.Anything, uint(42), testNow).Return(true, nil)

	result, err := svc.Verify(context.Background(), "buyer@test.com", "123456", "PurchaseRequest")
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.Equal(t, "OTP verified successfully.", result.Message)
	require.NotNil(t, result.Payload, "stored payload must be returned verbatim")
	assert.Equal(t, payload, *result.Payload)

	repo.AssertExpectations(t)
}

func TestVerify_NoRecord(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	repo.On("GetUnconsumed", mock.Anything, "buyer@test.com", "Login").
		Return(nil, apperrors.ErrNotFound)

	result, err := svc.Verify(context.Background(), "buyer@test.com", "123456", "Login")
	require.ErrorIs(t, err, ErrOtpNotFound)
	assert.False(t, result.IsValid)
	assert.Equal(t, "Invalid or expired OTP.", result.Message)
}

func TestVerify_ExpiredRecordIsConsumed(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	record := pendingRecord("123456", 0)
	record.ExpiresAt = testNow.Add(-time.Second)

	repo.On("GetUnconsumed", mock.Anything, "buyer@test.com", "PurchaseRequest").Return(record, nil)
	repo.On("Consume", mock.Anything, uint(42), testNow).Return(true, nil)

	result, err := svc.Verify(context.Background(), "buyer@test.com", "123456", "PurchaseRequest")
	require.ErrorIs(t, err, ErrOtpExpired)
	assert.False(t, result.IsValid)
	assert.Equal(t, "OTP has expired. Please request a new one.", result.Message)

	// Expiry wins over a correct code, and the record is gone for good.
	repo.AssertCalled(t, "Consume", mock.Anything, uint(42), testNow)
	repo.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything)
}

func TestVerify_AttemptsExhaustion(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	// Three wrong guesses, then the correct code must be refused.
	record := pendingRecord("123456", 0)

	repo.On("GetUnconsumed", mock.Anything, "buyer@test.com", "PurchaseRequest").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(42)).Return(nil)
	repo.On("Consume", mock.Anything, uint(42), testNow).Return(true, nil)

	for i := 1; i <= 3; i++ {
		result, err := svc.Verify(context.Background(), "buyer@test.com", "000000", "PurchaseRequest")
		require.ErrorIs(t, err, ErrOtpMismatch)
		assert.False(t, result.IsValid)
		assert.Equal(t, fmt.Sprintf("Invalid OTP. %d attempts remaining.", 3-i), result.Message)
	}

	// Fourth call with the correct code: limit reached before comparison.
	result, err := svc.Verify(context.Background(), "buyer@test.com", "123456", "PurchaseRequest")
	require.ErrorIs(t, err, ErrOtpAttemptsExceeded)
	assert.False(t, result.IsValid)
	assert.Equal(t, "Maximum attempts exceeded. Please request a new OTP.", result.Message)

	repo.AssertNumberOfCalls(t, "IncrementAttempts", 3)
}

func TestVerify_AttemptIncrementsEvenOnSuccess(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	record := pendingRecord("654321", 2)

	repo.On("GetUnconsumed", mock.Anything, "buyer@test.com", "PurchaseRequest").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(42)).Return(nil)
	repo.On("Consume", mock.Anything, uint(42), testNow).Return(true, nil)

	result, err := svc.Verify(context.Background(), "buyer@test.com", "654321", "PurchaseRequest")
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	repo.AssertCalled(t, "IncrementAttempts", mock.Anything, uint(42))
}

func TestVerify_ConcurrentConsumeLoser(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	record := pendingRecord("123456", 0)

	repo.On("GetUnconsumed", mock.Anything, "buyer@test.com", "PurchaseRequest").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(42)).Return(nil)
	// Another request already flipped used=true.
	repo.On("Consume", mock.Anything, uint(42), testNow).Return(false, nil)

	result, err := svc.Verify(context.Background(), "buyer@test.com", "123456", "PurchaseRequest")
	require.ErrorIs(t, err, ErrOtpConsumed)
	assert.False(t, result.IsValid)
	assert.Equal(t, "Invalid or expired OTP.", result.Message)
}

func TestVerify_RejectsMissingFields(t *testing.T) {
	svc := newTestOtpService(t, new(MockOtpRepository), new(MockIdentityProvider), new(MockDeliverySink))

	_, err := svc.Verify(context.Background(), "a@b.com", "", "Login")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// ============================================================================
// Purpose dispatch
// ============================================================================

func TestVerify_LoginDispatchIssuesToken(t *testing.T) {
	repo := new(MockOtpRepository)
	identity := new(MockIdentityProvider)
	svc := newTestOtpService(t, repo, identity, new(MockDeliverySink))

	record := pendingRecord("123456", 0)
	record.Purpose = entity.OtpPurposeLogin

	user := &entity.User{ID: 9, Email: "buyer@test.com", Role: entity.RoleCustomer}
	view := &UserView{ID: 9, Email: "buyer@test.com", Role: entity.RoleCustomer}

	repo.On("GetUnconsumed", mock.Anything, "buyer@test.com", "Login").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(42)).Return(nil)
	repo.On("Consume", mock.Anything, uint(42), testNow).Return(true, nil)
	identity.On("FindByEmail", "buyer@test.com").Return(user, nil)
	identity.On("IssueToken", user).Return("jwt-token", nil)
	identity.On("PublicView", user).Return(view)

	result, err := svc.Verify(context.Background(), "buyer@test.com", "123456", "Login")
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.Equal(t, "Login successful.", result.Message)
	assert.Equal(t, "jwt-token", result.Token)
	assert.Equal(t, view, result.User)
}

func TestVerify_LoginDispatchUnknownAccount(t *testing.T) {
	repo := new(MockOtpRepository)
	identity := new(MockIdentityProvider)
	svc := newTestOtpService(t, repo, identity, new(MockDeliverySink))

	record := pendingRecord("123456", 0)
	record.Purpose = entity.OtpPurposeLogin

	repo.On("GetUnconsumed", mock.Anything, "buyer@test.com", "Login").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(42)).Return(nil)
	repo.On("Consume", mock.Anything, uint(42), testNow).Return(true, nil)
	identity.On("FindByEmail", "buyer@test.com").Return(nil, apperrors.ErrNotFound)

	result, err := svc.Verify(context.Background(), "buyer@test.com", "123456", "Login")
	require.ErrorIs(t, err, ErrOtpAccountNotFound)
	assert.False(t, result.IsValid)
	assert.Equal(t, "User not found.", result.Message)
	assert.True(t, IsTerminalOtpError(err), "dispatch failure must not reopen the consumed record")
}

func TestVerify_RegisterDispatchCreatesAccount(t *testing.T) {
	repo := new(MockOtpRepository)
	identity := new(MockIdentityProvider)
	svc := newTestOtpService(t, repo, identity, new(MockDeliverySink))

	input := RegisterInput{
		Email:     "new@test.com",
		Password:  "secret1",
		FirstName: "Dana",
		LastName:  "Reyes",
	}
	raw, err := json.Marshal(input)
	require.NoError(t, err)
	payload := string(raw)

	record := pendingRecord("123456", 0)
	record.Email = "new@test.com"
	record.Purpose = entity.OtpPurposeRegister
	record.Payload = &payload

	user := &entity.User{ID: 11, Email: "new@test.com", Role: entity.RoleCustomer}
	view := &UserView{ID: 11, Email: "new@test.com", Role: entity.RoleCustomer}

	repo.On("GetUnconsumed", mock.Anything, "new@test.com", "Register").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(42)).Return(nil)
	repo.On("Consume", mock.Anything, uint(42), testNow).Return(true, nil)
	identity.On("CreateAccount", input).Return(user, nil)
	identity.On("IssueToken", user).Return("jwt-token", nil)
	identity.On("PublicView", user).Return(view)

	result, err := svc.Verify(context.Background(), "new@test.com", "123456", "Register")
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.Equal(t, "Registration successful.", result.Message)
	assert.Equal(t, "jwt-token", result.Token)
}

func TestVerify_RegisterDispatchBadPayload(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	bad := "{not json"
	record := pendingRecord("123456", 0)
	record.Purpose = entity.OtpPurposeRegister
	record.Payload = &bad

	repo.On("GetUnconsumed", mock.Anything, "buyer@test.com", "Register").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(42)).Return(nil)
	repo.On("Consume", mock.Anything, uint(42), testNow).Return(true, nil)

	result, err := svc.Verify(context.Background(), "buyer@test.com", "123456", "Register")
	require.ErrorIs(t, err, ErrOtpInvalidPayload)
	assert.False(t, result.IsValid)
	assert.Equal(t, "Invalid registration data format.", result.Message)
}

func TestVerify_UnknownPurposeReturnsPayloadUntouched(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	payload := "opaque-blob"
	record := pendingRecord("123456", 0)
	record.Purpose = "SomethingNew"
	record.Payload = &payload

	repo.On("GetUnconsumed", mock.Anything, "buyer@test.com", "SomethingNew").Return(record, nil)
	repo.On("IncrementAttempts", mock.Anything, uint(42)).Return(nil)
	repo.On("Consume", mock.Anything, uint(42), testNow).Return(true, nil)

	result, err := svc.Verify(context.Background(), "buyer@test.com", "123456", "SomethingNew")
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	require.NotNil(t, result.Payload)
	assert.Equal(t, "opaque-blob", *result.Payload)
	assert.Nil(t, result.User)
	assert.Empty(t, result.Token)
}

// ============================================================================
// IsActive / PurgeExpired
// ============================================================================

func TestIsActive(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	repo.On("GetActive", mock.Anything, "a@b.com", "Login", testNow).
		Return(pendingRecord("123456", 0), nil).Once()
	active, err := svc.IsActive(context.Background(), "a@b.com", "Login")
	require.NoError(t, err)
	assert.True(t, active)

	repo.On("GetActive", mock.Anything, "a@b.com", "Login", testNow).
		Return(nil, apperrors.ErrNotFound).Once()
	active, err = svc.IsActive(context.Background(), "a@b.com", "Login")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestPurgeExpired(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	repo.On("DeleteDead", mock.Anything, testNow).Return(int64(7), nil)

	count, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestGenerateOtpCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateOtpCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}
