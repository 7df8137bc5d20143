package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
	apperrors "github.com/yourusername/brainbolt-api/internal/pkg/errors"
)

// SessionRepo реализует repository.SessionRepository
type SessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo создает новый репозиторий сессий
func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Upsert создаёт или перезаписывает активный вопрос пользователя.
// ON CONFLICT по user_id: строка сессии всегда ровно одна на пользователя.
func (r *SessionRepo) Upsert(userID, questionID uint) error {
	session := entity.QuizSession{
		UserID:            userID,
		CurrentQuestionID: &questionID,
		IssuedAt:          time.Now(),
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_question_id", "issued_at", "updated_at"}),
	}).Create(&session).Error
}

// GetByUserID возвращает сессию пользователя
func (r *SessionRepo) GetByUserID(userID uint) (*entity.QuizSession, error) {
	var session entity.QuizSession
	err := r.db.Where("user_id = ?", userID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ClearTx очищает указатель на активный вопрос внутри транзакции отправки ответа,
// поэтому повторный submit без нового запроса вопроса получает ErrNoActiveQuestion
func (r *SessionRepo) ClearTx(tx *gorm.DB, userID uint) error {
	return tx.Model(&entity.QuizSession{}).
		Where("user_id = ?", userID).
		Update("current_question_id", nil).
		Error
}
