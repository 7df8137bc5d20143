package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
// Используется GORM для записи StringArray в JSONB в базе
func (o StringArray) Value() (driver.Value, error) {
	if o == nil || len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Question представляет вопрос из банка вопросов
type Question struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Prompt       string      `gorm:"size:500;not null" json:"prompt"`
	Choices      StringArray `gorm:"type:jsonb;not null" json:"choices"`
	CorrectIndex int         `gorm:"not null" json:"-"` // Скрыто от клиента
	Explanation  string      `gorm:"size:1000;not null;default:''" json:"-"`
	Difficulty   int         `gorm:"not null;default:1;index" json:"difficulty"` // 1..10
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(choiceIndex int) bool {
	return choiceIndex == q.CorrectIndex
}

// IsValidChoice проверяет, является ли выбранный вариант допустимым
func (q *Question) IsValidChoice(choiceIndex int) bool {
	return choiceIndex >= 0 && choiceIndex < len(q.Choices)
}

// ChoicesCount возвращает количество вариантов ответа
func (q *Question) ChoicesCount() int {
	return len(q.Choices)
}
