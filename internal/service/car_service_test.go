package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/dealership-api/internal/domain/entity"
	"github.com/yourusername/dealership-api/internal/domain/repository"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

// MockCarRepository implements repository.CarRepository
type MockCarRepository struct {
	mock.Mock
}

func (m *MockCarRepository) Create(car *entity.Car) error {
	args := m.Called(car)
	return args.Error(0)
}

func (m *MockCarRepository) GetByID(id uint) (*entity.Car, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Car), args.Error(1)
}

func (m *MockCarRepository) GetByVIN(vin string) (*entity.Car, error) {
	args := m.Called(vin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Car), args.Error(1)
}

func (m *MockCarRepository) Update(car *entity.Car) error {
	args := m.Called(car)
	return args.Error(0)
}

func (m *MockCarRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockCarRepository) List(filters repository.CarFilters, limit, offset int) ([]entity.Car, int64, error) {
	args := m.Called(filters, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Car), args.Get(1).(int64), args.Error(2)
}

// recordingNotifier captures broadcast events for assertions.
type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Broadcast(event string, data interface{}) {
	n.events = append(n.events, event)
}

func validCarInput() CarInput {
	return CarInput{
		Make:         "Toyota",
		Model:        "Camry",
		Year:         2022,
		Color:        "Silver",
		VIN:          "1hgcm82633a004352",
		Price:        24999.99,
		Mileage:      12000,
		Transmission: "Automatic",
		FuelType:     "Gasoline",
	}
}

func TestCarService_CreateNormalizesAndBroadcasts(t *testing.T) {
	repo := new(MockCarRepository)
	notifier := &recordingNotifier{}
	svc := NewCarService(repo, nil, notifier)

	repo.On("Create", mock.AnythingOfType("*entity.Car")).Return(nil)

	car, err := svc.Create(validCarInput())
	require.NoError(t, err)

	assert.Equal(t, "1HGCM82633A004352", car.VIN, "VIN is stored uppercase")
	assert.True(t, car.IsAvailable)
	assert.Equal(t, []string{EventCarUpdated}, notifier.events)
}

func TestCarService_CreateValidation(t *testing.T) {
	svc := NewCarService(new(MockCarRepository), nil, nil)

	tests := []struct {
		name   string
		mutate func(*CarInput)
	}{
		{"missing make", func(in *CarInput) { in.Make = " " }},
		{"short VIN", func(in *CarInput) { in.VIN = "ABC123" }},
		{"zero price", func(in *CarInput) { in.Price = 0 }},
		{"negative mileage", func(in *CarInput) { in.Mileage = -1 }},
		{"ancient year", func(in *CarInput) { in.Year = 1850 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCarInput()
			tt.mutate(&input)
			_, err := svc.Create(input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestCarService_MarkSold(t *testing.T) {
	repo := new(MockCarRepository)
	svc := NewCarService(repo, nil, nil)

	car := &entity.Car{ID: 3, VIN: "1HGCM82633A004352", IsAvailable: true}
	repo.On("GetByID", uint(3)).Return(car, nil)
	repo.On("Update", car).Return(nil)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sold, err := svc.MarkSold(3, at)
	require.NoError(t, err)

	assert.False(t, sold.IsAvailable)
	require.NotNil(t, sold.DateSold)
	assert.Equal(t, at, *sold.DateSold)
}

func TestCarService_MarkSoldTwice(t *testing.T) {
	repo := new(MockCarRepository)
	svc := NewCarService(repo, nil, nil)

	car := &entity.Car{ID: 3, IsAvailable: false}
	repo.On("GetByID", uint(3)).Return(car, nil)

	_, err := svc.MarkSold(3, time.Now())
	assert.ErrorIs(t, err, ErrCarUnavailable)
	repo.AssertNotCalled(t, "Update", mock.Anything)
}
