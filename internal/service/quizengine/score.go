package quizengine

import (
	"math"
)

// Параметры начисления очков
const (
	basePointsPerDifficulty = 10
	streakMultiplier        = 0.1
	maxComboMultiplier      = 3.0
)

// ScoreEngine вычисляет прибавку очков за правильный ответ.
// Чистая функция: delta = floor(difficulty) * 10 * min(1 + streak*0.1, 3.0).
type ScoreEngine struct{}

// NewScoreEngine создаёт движок подсчёта очков
func NewScoreEngine() *ScoreEngine {
	return &ScoreEngine{}
}

// CalculateDelta возвращает прибавку очков за правильный ответ.
// streak — значение ДО инкремента за текущий ответ: комбо-множитель отражает
// серию, с которой пользователь входит в этот ответ.
func (e *ScoreEngine) CalculateDelta(difficulty float64, streak int) int64 {
	baseDifficulty := math.Floor(difficulty)
	comboMultiplier := math.Min(1+float64(streak)*streakMultiplier, maxComboMultiplier)
	// Round вместо усечения: произведение вида 50*1.3 в double может дать 64.999...
	return int64(math.Round(baseDifficulty * basePointsPerDifficulty * comboMultiplier))
}
