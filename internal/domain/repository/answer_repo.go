package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
)

// AnswerStats — агрегаты журнала ответов для статистики пользователя
type AnswerStats struct {
	TotalAnswered  int64
	CorrectAnswers int64
}

// AnswerRepository определяет методы для работы с журналом ответов (append-only)
type AnswerRepository interface {
	// CreateTx добавляет запись журнала внутри транзакции отправки ответа.
	// Возвращает apperrors.ErrConflict при нарушении уникальности idempotency_key.
	CreateTx(tx *gorm.DB, answer *entity.AnswerLog) error

	// GetRecentQuestionIDs возвращает ID последних limit отвеченных вопросов пользователя
	// (для исключения повторов при выборке следующего вопроса)
	GetRecentQuestionIDs(userID uint, limit int) ([]uint, error)

	// GetUserStats возвращает агрегаты журнала для пользователя
	GetUserStats(userID uint) (*AnswerStats, error)

	// GetUserAnswers возвращает журнал пользователя с пагинацией (для экспорта)
	GetUserAnswers(userID uint, limit, offset int) ([]entity.AnswerLog, error)
}
