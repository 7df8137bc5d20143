package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
)

// LeaderboardRepository определяет методы для работы с durable-проекциями лидербордов
type LeaderboardRepository interface {
	// CreateRowsTx создаёт нулевые строки обеих проекций при регистрации пользователя
	CreateRowsTx(tx *gorm.DB, userID uint, username string) error

	// UpdateScoreTx обновляет строку score-проекции внутри транзакции отправки ответа
	UpdateScoreTx(tx *gorm.DB, userID uint, totalScore int64) error

	// UpdateStreakTx обновляет строку streak-проекции внутри транзакции отправки ответа
	UpdateStreakTx(tx *gorm.DB, userID uint, maxStreak int) error

	// TopByScore возвращает топ-N строк score-проекции по убыванию счёта
	TopByScore(limit int) ([]entity.LeaderboardScore, error)

	// TopByStreak возвращает топ-N строк streak-проекции по убыванию стрика
	TopByStreak(limit int) ([]entity.LeaderboardStreak, error)

	// GetUsernames возвращает username по списку userID (для выдачи из Redis ZSET)
	GetUsernames(userIDs []uint) (map[uint]string, error)
}
