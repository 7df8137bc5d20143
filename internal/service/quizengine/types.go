package quizengine

import (
	"time"
)

// Константы по умолчанию
const (
	DefaultRecentQuestionWindow = 20
	DefaultCandidatePoolSize    = 10
)

// Config содержит настройки компонентов адаптивного движка
type Config struct {
	// RecentQuestionWindow — сколько последних отвеченных вопросов исключать из выборки
	RecentQuestionWindow int

	// CandidatePoolSize — сколько кандидатов запрашивать из банка перед случайным выбором
	CandidatePoolSize int

	// InactivityThreshold — простой, после которого текущий стрик сгорает
	// (правило "use it or lose it", применяется при запросе вопроса)
	InactivityThreshold time.Duration

	// IdempotencyTTL — время жизни сохранённого результата отправки ответа
	IdempotencyTTL time.Duration

	// UserStateTTL — время жизни кешированного снапшота состояния пользователя
	UserStateTTL time.Duration

	// LeaderboardRebuildSize — сколько строк проекций загружать при полном восстановлении кеша
	LeaderboardRebuildSize int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		RecentQuestionWindow:   DefaultRecentQuestionWindow,
		CandidatePoolSize:      DefaultCandidatePoolSize,
		InactivityThreshold:    30 * time.Minute,
		IdempotencyTTL:         5 * time.Minute,
		UserStateTTL:           10 * time.Minute,
		LeaderboardRebuildSize: 1000,
	}
}
