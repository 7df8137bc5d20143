package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
	"github.com/yourusername/brainbolt-api/internal/domain/repository"
	apperrors "github.com/yourusername/brainbolt-api/internal/pkg/errors"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий журнала ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// CreateTx добавляет запись журнала внутри транзакции отправки ответа.
// Нарушение уникальности idempotency_key означает, что конкурентный запрос
// с тем же ключом уже зафиксировал ответ — возвращаем ErrConflict.
func (r *AnswerRepo) CreateTx(tx *gorm.DB, answer *entity.AnswerLog) error {
	if err := tx.Create(answer).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate idempotency key %q", apperrors.ErrConflict, answer.IdempotencyKey)
		}
		return err
	}
	return nil
}

// GetRecentQuestionIDs возвращает ID последних limit отвеченных вопросов пользователя
func (r *AnswerRepo) GetRecentQuestionIDs(userID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entity.AnswerLog{}).
		Where("user_id = ?", userID).
		Order("answered_at DESC").
		Limit(limit).
		Pluck("question_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetUserStats возвращает агрегаты журнала для пользователя одним запросом
func (r *AnswerRepo) GetUserStats(userID uint) (*repository.AnswerStats, error) {
	var stats repository.AnswerStats
	err := r.db.Model(&entity.AnswerLog{}).
		Select(`
			COUNT(*) as total_answered,
			COUNT(*) FILTER (WHERE correct = true) as correct_answers
		`).
		Where("user_id = ?", userID).
		Scan(&stats).
		Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetUserAnswers возвращает журнал пользователя с пагинацией (свежие первыми)
func (r *AnswerRepo) GetUserAnswers(userID uint, limit, offset int) ([]entity.AnswerLog, error) {
	var answers []entity.AnswerLog
	err := r.db.Where("user_id = ?", userID).
		Order("answered_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&answers).
		Error
	return answers, err
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
