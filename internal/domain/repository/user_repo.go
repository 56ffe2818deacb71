package repository

import "github.com/yourusername/dealership-api/internal/domain/entity"

// UserRepository defines persistence for accounts.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	Update(user *entity.User) error
	Delete(id uint) error
	ListByRole(role string, limit, offset int) ([]entity.User, int64, error)
}
