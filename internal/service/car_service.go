package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/dealership-api/internal/domain/entity"
	"github.com/yourusername/dealership-api/internal/domain/repository"
	apperrors "github.com/yourusername/dealership-api/internal/pkg/errors"
)

const (
	carListCacheKey = "cars:list:default"
	carListCacheTTL = 2 * time.Minute
)

// CarInput carries the mutable vehicle fields.
type CarInput struct {
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	Color        string  `json:"color"`
	VIN          string  `json:"vin"`
	Price        float64 `json:"price"`
	Mileage      int     `json:"mileage"`
	Transmission string  `json:"transmission"`
	FuelType     string  `json:"fuel_type"`
}

// CarService manages the vehicle inventory. The default listing is cached
// in Redis and invalidated on every mutation.
type CarService struct {
	carRepo  repository.CarRepository
	cache    repository.CacheRepository
	notifier Notifier
}

// NewCarService creates a new inventory service. cache may be nil during
// tests; notifier may be nil and falls back to a no-op.
func NewCarService(carRepo repository.CarRepository, cache repository.CacheRepository, notifier Notifier) *CarService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &CarService{
		carRepo:  carRepo,
		cache:    cache,
		notifier: notifier,
	}
}

// List returns cars matching the filters. The unfiltered first page comes
// from the cache when possible.
func (s *CarService) List(filters repository.CarFilters, limit, offset int) ([]entity.Car, int64, error) {
	cacheable := s.cache != nil && filters == (repository.CarFilters{}) && offset == 0 && limit == 20

	if cacheable {
		var cached struct {
			Cars  []entity.Car `json:"cars"`
			Total int64        `json:"total"`
		}
		if err := s.cache.GetJSON(carListCacheKey, &cached); err == nil {
			return cached.Cars, cached.Total, nil
		}
	}

	cars, total, err := s.carRepo.List(filters, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	if cacheable {
		payload := struct {
			Cars  []entity.Car `json:"cars"`
			Total int64        `json:"total"`
		}{cars, total}
		if err := s.cache.SetJSON(carListCacheKey, payload, carListCacheTTL); err != nil {
			log.Printf("[CarService] failed to cache car list: %v", err)
		}
	}

	return cars, total, nil
}

// Get returns one car.
func (s *CarService) Get(id uint) (*entity.Car, error) {
	return s.carRepo.GetByID(id)
}

// Create adds a vehicle to the inventory.
func (s *CarService) Create(input CarInput) (*entity.Car, error) {
	if err := validateCarInput(input); err != nil {
		return nil, err
	}

	car := &entity.Car{
		Make:         strings.TrimSpace(input.Make),
		Model:        strings.TrimSpace(input.Model),
		Year:         input.Year,
		Color:        strings.TrimSpace(input.Color),
		VIN:          strings.ToUpper(strings.TrimSpace(input.VIN)),
		Price:        input.Price,
		Mileage:      input.Mileage,
		Transmission: strings.TrimSpace(input.Transmission),
		FuelType:     strings.TrimSpace(input.FuelType),
		IsAvailable:  true,
		DateAdded:    time.Now(),
	}
	if err := s.carRepo.Create(car); err != nil {
		return nil, err
	}

	s.invalidateListCache()
	s.notifier.Broadcast(EventCarUpdated, car)
	return car, nil
}

// Update applies new field values to an existing car.
func (s *CarService) Update(id uint, input CarInput) (*entity.Car, error) {
	if err := validateCarInput(input); err != nil {
		return nil, err
	}

	car, err := s.carRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	car.Make = strings.TrimSpace(input.Make)
	car.Model = strings.TrimSpace(input.Model)
	car.Year = input.Year
	car.Color = strings.TrimSpace(input.Color)
	car.VIN = strings.ToUpper(strings.TrimSpace(input.VIN))
	car.Price = input.Price
	car.Mileage = input.Mileage
	car.Transmission = strings.TrimSpace(input.Transmission)
	car.FuelType = strings.TrimSpace(input.FuelType)

	if err := s.carRepo.Update(car); err != nil {
		return nil, err
	}

	s.invalidateListCache()
	s.notifier.Broadcast(EventCarUpdated, car)
	return car, nil
}

// Delete removes a car from the inventory.
func (s *CarService) Delete(id uint) error {
	if err := s.carRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateListCache()
	return nil
}

// MarkSold flips a car to sold. Returns ErrCarUnavailable when the car
// has already been sold.
func (s *CarService) MarkSold(id uint, at time.Time) (*entity.Car, error) {
	car, err := s.carRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !car.IsAvailable {
		return nil, fmt.Errorf("%w: car #%d", ErrCarUnavailable, id)
	}

	car.MarkSold(at)
	if err := s.carRepo.Update(car); err != nil {
		return nil, err
	}

	s.invalidateListCache()
	s.notifier.Broadcast(EventCarUpdated, car)
	return car, nil
}

func (s *CarService) invalidateListCache() {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(carListCacheKey); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[CarService] failed to invalidate car list cache: %v", err)
	}
}

func validateCarInput(input CarInput) error {
	if strings.TrimSpace(input.Make) == "" || strings.TrimSpace(input.Model) == "" {
		return fmt.Errorf("%w: make and model are required", apperrors.ErrValidation)
	}
	if input.Year < 1900 || input.Year > time.Now().Year()+1 {
		return fmt.Errorf("%w: invalid year", apperrors.ErrValidation)
	}
	if len(strings.TrimSpace(input.VIN)) != 17 {
		return fmt.Errorf("%w: VIN must be 17 characters", apperrors.ErrValidation)
	}
	if input.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", apperrors.ErrValidation)
	}
	if input.Mileage < 0 {
		return fmt.Errorf("%w: mileage cannot be negative", apperrors.ErrValidation)
	}
	return nil
}
