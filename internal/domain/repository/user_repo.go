package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error

	// CreateTx создаёт пользователя внутри транзакции регистрации
	// (вместе с начальным состоянием и строками лидербордов)
	CreateTx(tx *gorm.DB, user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
	List(limit, offset int) ([]entity.User, error)
}
