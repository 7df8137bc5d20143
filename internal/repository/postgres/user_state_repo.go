package postgres

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
	"github.com/yourusername/brainbolt-api/internal/domain/repository"
	apperrors "github.com/yourusername/brainbolt-api/internal/pkg/errors"
)

// UserStateRepo реализует repository.UserStateRepository
type UserStateRepo struct {
	db *gorm.DB
}

// NewUserStateRepo создает новый репозиторий адаптивного состояния
func NewUserStateRepo(db *gorm.DB) *UserStateRepo {
	return &UserStateRepo{db: db}
}

// Create создает запись состояния с дефолтами (difficulty=1, momentum=0, version=0)
func (r *UserStateRepo) Create(state *entity.UserState) error {
	return r.db.Create(state).Error
}

// CreateTx создает запись состояния внутри транзакции регистрации
func (r *UserStateRepo) CreateTx(tx *gorm.DB, state *entity.UserState) error {
	return tx.Create(state).Error
}

// GetByUserID возвращает состояние пользователя
func (r *UserStateRepo) GetByUserID(userID uint) (*entity.UserState, error) {
	return r.getByUserID(r.db, userID)
}

// GetByUserIDTx читает состояние внутри переданной транзакции
func (r *UserStateRepo) GetByUserIDTx(tx *gorm.DB, userID uint) (*entity.UserState, error) {
	return r.getByUserID(tx, userID)
}

func (r *UserStateRepo) getByUserID(db *gorm.DB, userID uint) (*entity.UserState, error) {
	var state entity.UserState
	err := db.Where("user_id = ?", userID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &state, nil
}

// ApplyAnswerTx применяет результат ответа одной командой UPDATE c условием
// state_version = expectedVersion (compare-and-increment). Версия инкрементируется
// ровно на 1 той же командой, поэтому из двух конкурентных отправок с одинаковой
// версией зафиксируется ровно одна, вторая получит RowsAffected=0 → ErrConflict.
func (r *UserStateRepo) ApplyAnswerTx(tx *gorm.DB, userID uint, expectedVersion int64, upd repository.UserStateUpdate) error {
	result := tx.Model(&entity.UserState{}).
		Where("user_id = ? AND state_version = ?", userID, expectedVersion).
		Updates(map[string]interface{}{
			"current_difficulty": upd.CurrentDifficulty,
			"momentum":           upd.Momentum,
			"streak":             upd.Streak,
			"max_streak":         upd.MaxStreak,
			"total_score":        upd.TotalScore,
			"state_version":      gorm.Expr("state_version + 1"),
			"last_answered_at":   time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// Версия уже продвинулась (или состояния нет) — конфликт optimistic lock
		log.Printf("[UserStateRepo] Конфликт версии для пользователя #%d (ожидалась %d)", userID, expectedVersion)
		return apperrors.ErrConflict
	}

	return nil
}

// ResetStreak обнуляет текущий стрик, не трогая state_version.
// Применяется правилом неактивности при запросе следующего вопроса.
func (r *UserStateRepo) ResetStreak(userID uint) error {
	return r.db.Model(&entity.UserState{}).
		Where("user_id = ?", userID).
		Update("streak", 0).
		Error
}
