package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
	apperrors "github.com/yourusername/brainbolt-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// CreateBatch создает пакет вопросов
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&questions).Error
	})
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// FindByDifficultyRange возвращает до limit вопросов со сложностью в [minDiff, maxDiff],
// исключая перечисленные ID. Порядок стабильный (по ID), случайный выбор делает селектор.
func (r *QuestionRepo) FindByDifficultyRange(minDiff, maxDiff int, excludeIDs []uint, limit int) ([]entity.Question, error) {
	var questions []entity.Question

	query := r.db.Where("difficulty >= ? AND difficulty <= ?", minDiff, maxDiff)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	err := query.Order("id").Limit(limit).Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// CountByDifficulty возвращает количество вопросов заданной сложности
func (r *QuestionRepo) CountByDifficulty(difficulty int) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).Where("difficulty = ?", difficulty).Count(&count).Error
	return count, err
}
