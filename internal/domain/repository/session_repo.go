package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
)

// SessionRepository определяет методы для работы с указателем "текущий вопрос пользователя"
type SessionRepository interface {
	// Upsert создаёт или перезаписывает активный вопрос пользователя
	Upsert(userID, questionID uint) error

	// GetByUserID возвращает сессию пользователя (apperrors.ErrNotFound, если её нет)
	GetByUserID(userID uint) (*entity.QuizSession, error)

	// ClearTx очищает указатель на активный вопрос внутри транзакции отправки ответа
	ClearTx(tx *gorm.DB, userID uint) error
}
