package entity

import (
	"time"
)

// AnswerLog представляет запись журнала ответов. Журнал append-only:
// записи никогда не изменяются после создания и используются для статистики
// и для исключения недавно отвеченных вопросов из выборки.
type AnswerLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	QuestionID     uint      `gorm:"not null;index" json:"question_id"`
	ChoiceIndex    int       `gorm:"not null;default:-1" json:"choice_index"`
	Correct        bool      `gorm:"not null" json:"correct"`
	ScoreDelta     int64     `gorm:"not null;default:0" json:"score_delta"`
	StreakAtAnswer int       `gorm:"not null;default:0" json:"streak_at_answer"` // streak ДО этого ответа
	// Уникальность ключа закрывает гонку двух конкурентных запросов с одним
	// idempotency key внутри durable-транзакции (вторая вставка получает 23505).
	IdempotencyKey string    `gorm:"size:100;not null;uniqueIndex" json:"idempotency_key"`
	AnsweredAt     time.Time `gorm:"not null" json:"answered_at"`
}

// TableName определяет имя таблицы для GORM
func (AnswerLog) TableName() string {
	return "answer_logs"
}
