package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
)

// LeaderboardRepo реализует repository.LeaderboardRepository
type LeaderboardRepo struct {
	db *gorm.DB
}

// NewLeaderboardRepo создает новый репозиторий durable-проекций лидербордов
func NewLeaderboardRepo(db *gorm.DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

// CreateRowsTx создаёт нулевые строки обеих проекций при регистрации пользователя
func (r *LeaderboardRepo) CreateRowsTx(tx *gorm.DB, userID uint, username string) error {
	scoreRow := entity.LeaderboardScore{
		UserID:   userID,
		Username: username,
	}
	if err := tx.Create(&scoreRow).Error; err != nil {
		return err
	}

	streakRow := entity.LeaderboardStreak{
		UserID:   userID,
		Username: username,
	}
	return tx.Create(&streakRow).Error
}

// UpdateScoreTx обновляет строку score-проекции внутри транзакции отправки ответа.
// Значение всегда производно от только что зафиксированного user_states.total_score.
func (r *LeaderboardRepo) UpdateScoreTx(tx *gorm.DB, userID uint, totalScore int64) error {
	return tx.Model(&entity.LeaderboardScore{}).
		Where("user_id = ?", userID).
		Update("total_score", totalScore).
		Error
}

// UpdateStreakTx обновляет строку streak-проекции внутри транзакции отправки ответа
func (r *LeaderboardRepo) UpdateStreakTx(tx *gorm.DB, userID uint, maxStreak int) error {
	return tx.Model(&entity.LeaderboardStreak{}).
		Where("user_id = ?", userID).
		Update("max_streak", maxStreak).
		Error
}

// TopByScore возвращает топ-N строк score-проекции.
// Вторичная сортировка по user_id для стабильного порядка при равных счетах.
func (r *LeaderboardRepo) TopByScore(limit int) ([]entity.LeaderboardScore, error) {
	var rows []entity.LeaderboardScore
	err := r.db.Order("total_score DESC, user_id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

// TopByStreak возвращает топ-N строк streak-проекции
func (r *LeaderboardRepo) TopByStreak(limit int) ([]entity.LeaderboardStreak, error) {
	var rows []entity.LeaderboardStreak
	err := r.db.Order("max_streak DESC, user_id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

// GetUsernames возвращает username по списку userID
func (r *LeaderboardRepo) GetUsernames(userIDs []uint) (map[uint]string, error) {
	if len(userIDs) == 0 {
		return map[uint]string{}, nil
	}

	var users []entity.User
	err := r.db.Select("id", "username").Where("id IN ?", userIDs).Find(&users).Error
	if err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
