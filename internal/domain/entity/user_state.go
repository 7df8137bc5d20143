package entity

import (
	"time"
)

// Границы адаптивного состояния пользователя
const (
	MinDifficulty = 1.0
	MaxDifficulty = 10.0
	MaxMomentum   = 1.5
)

// UserState представляет адаптивный прогресс пользователя.
// Одна запись на пользователя; мутируется исключительно сервисом отправки ответов
// внутри транзакции с проверкой state_version (optimistic lock).
type UserState struct {
	ID                uint       `gorm:"primaryKey" json:"-"`
	UserID            uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	CurrentDifficulty float64    `gorm:"not null;default:1" json:"current_difficulty"` // диапазон [1, 10]
	Momentum          float64    `gorm:"not null;default:0" json:"momentum"`           // диапазон [0, 1.5]
	Streak            int        `gorm:"not null;default:0" json:"streak"`
	MaxStreak         int        `gorm:"not null;default:0" json:"max_streak"` // монотонная верхняя отметка
	TotalScore        int64      `gorm:"not null;default:0" json:"total_score"`
	StateVersion      int64      `gorm:"not null;default:0" json:"state_version"` // +1 за каждый принятый ответ
	LastAnsweredAt    *time.Time `gorm:"type:timestamp" json:"last_answered_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (UserState) TableName() string {
	return "user_states"
}

// IsInactiveSince возвращает true, если с последнего ответа прошло больше threshold.
// Если пользователь ещё не отвечал — false.
func (s *UserState) IsInactiveSince(now time.Time, threshold time.Duration) bool {
	if s.LastAnsweredAt == nil {
		return false
	}
	return now.Sub(*s.LastAnsweredAt) > threshold
}
