package entity

import (
	"time"
)

// QuizSession хранит указатель на последний выданный пользователю вопрос.
// Ровно одна активная запись на пользователя: перезаписывается при запросе
// следующего вопроса и очищается после принятого ответа, поэтому повторный
// submit без нового запроса вопроса завершается ошибкой "нет активного вопроса".
type QuizSession struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	UserID            uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	CurrentQuestionID *uint     `gorm:"index" json:"current_question_id,omitempty"`
	IssuedAt          time.Time `gorm:"not null" json:"issued_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (QuizSession) TableName() string {
	return "quiz_sessions"
}

// HasActiveQuestion возвращает true, если пользователю выдан вопрос, ожидающий ответа
func (s *QuizSession) HasActiveQuestion() bool {
	return s.CurrentQuestionID != nil
}
