package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
)

// UserStateUpdate описывает новые значения адаптивного состояния,
// применяемые атомарно после принятого ответа.
type UserStateUpdate struct {
	CurrentDifficulty float64
	Momentum          float64
	Streak            int
	MaxStreak         int
	TotalScore        int64
}

// UserStateRepository определяет методы для работы с адаптивным состоянием пользователя
type UserStateRepository interface {
	Create(state *entity.UserState) error

	// CreateTx создаёт начальное состояние внутри транзакции регистрации
	CreateTx(tx *gorm.DB, state *entity.UserState) error

	GetByUserID(userID uint) (*entity.UserState, error)

	// GetByUserIDTx читает состояние внутри переданной транзакции
	GetByUserIDTx(tx *gorm.DB, userID uint) (*entity.UserState, error)

	// ApplyAnswerTx применяет результат ответа одной командой UPDATE с проверкой
	// state_version (compare-and-increment). Возвращает apperrors.ErrConflict,
	// если версия уже продвинулась (проиграна гонка конкурентных отправок).
	ApplyAnswerTx(tx *gorm.DB, userID uint, expectedVersion int64, upd UserStateUpdate) error

	// ResetStreak обнуляет текущий стрик (правило неактивности "use it or lose it").
	// Отдельное маленькое обновление, не трогающее state_version.
	ResetStreak(userID uint) error
}
