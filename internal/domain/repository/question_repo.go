package repository

import (
	"github.com/yourusername/brainbolt-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с банком вопросов
type QuestionRepository interface {
	Create(question *entity.Question) error
	CreateBatch(questions []entity.Question) error
	GetByID(id uint) (*entity.Question, error)

	// FindByDifficultyRange возвращает до limit вопросов со сложностью в [minDiff, maxDiff],
	// исключая перечисленные ID (недавно отвеченные вопросы пользователя)
	FindByDifficultyRange(minDiff, maxDiff int, excludeIDs []uint, limit int) ([]entity.Question, error)

	// CountByDifficulty возвращает количество вопросов заданной сложности
	CountByDifficulty(difficulty int) (int64, error)
}
