package entity

import (
	"time"
)

// Виды лидербордов
const (
	LeaderboardKindScore  = "score"
	LeaderboardKindStreak = "streak"
)

// LeaderboardScore — durable-проекция суммарного счёта пользователя.
// Производные данные: полностью восстанавливаются из user_states,
// инкрементально обновляются после каждого принятого ответа.
type LeaderboardScore struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Username   string    `gorm:"size:50;not null" json:"username"` // денормализовано для выдачи без JOIN
	TotalScore int64     `gorm:"not null;default:0;index" json:"total_score"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (LeaderboardScore) TableName() string {
	return "leaderboard_scores"
}

// LeaderboardStreak — durable-проекция максимального стрика пользователя
type LeaderboardStreak struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Username  string    `gorm:"size:50;not null" json:"username"`
	MaxStreak int       `gorm:"not null;default:0;index" json:"max_streak"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (LeaderboardStreak) TableName() string {
	return "leaderboard_streaks"
}
