package quizengine

import (
	"math"
)

// Параметры адаптивной сложности. Гистерезис по momentum не даёт сложности
// дёргаться вверх-вниз между соседними уровнями после каждого одиночного ответа.
const (
	momentumIncrease       = 0.15
	momentumDecreaseFactor = 0.5
	hysteresisThreshold    = 0.3
	difficultyIncreaseBase = 0.5
	difficultyDecrease     = 0.8
	momentumMultiplier     = 0.3
	minDifficulty          = 1.0
	maxDifficulty          = 10.0
	maxMomentum            = 1.5
)

// AdaptiveState — пара (сложность, momentum), с которой работает движок
type AdaptiveState struct {
	CurrentDifficulty float64
	Momentum          float64
}

// AdaptiveEngine вычисляет новую сложность и momentum по результату ответа.
// Все методы чистые и детерминированные, без побочных эффектов.
type AdaptiveEngine struct{}

// NewAdaptiveEngine создаёт движок адаптивной сложности
func NewAdaptiveEngine() *AdaptiveEngine {
	return &AdaptiveEngine{}
}

// AdjustOnCorrect возвращает новое состояние после правильного ответа.
// Сложность растёт только когда накопленный momentum пересёк порог гистерезиса.
func (e *AdaptiveEngine) AdjustOnCorrect(state AdaptiveState) AdaptiveState {
	newMomentum := math.Min(state.Momentum+momentumIncrease, maxMomentum)

	newDifficulty := state.CurrentDifficulty
	if newMomentum >= hysteresisThreshold {
		increase := difficultyIncreaseBase * (1 + newMomentum*momentumMultiplier)
		newDifficulty = math.Min(state.CurrentDifficulty+increase, maxDifficulty)
	}

	return AdaptiveState{
		CurrentDifficulty: newDifficulty,
		Momentum:          newMomentum,
	}
}

// AdjustOnWrong возвращает новое состояние после неправильного ответа.
// Momentum делится пополам (одиночный промах не стирает накопленное),
// сложность снижается безусловно — на пути вниз гистерезиса нет:
// отзывчивость к затруднениям важнее стабильности.
func (e *AdaptiveEngine) AdjustOnWrong(state AdaptiveState) AdaptiveState {
	return AdaptiveState{
		CurrentDifficulty: math.Max(state.CurrentDifficulty-difficultyDecrease, minDifficulty),
		Momentum:          state.Momentum * momentumDecreaseFactor,
	}
}

// DifficultyRange возвращает [min, max] целых уровней сложности для выборки вопроса:
// округлённая текущая сложность ±1, с обрезкой до [1, 10]
func (e *AdaptiveEngine) DifficultyRange(currentDifficulty float64) (int, int) {
	rounded := int(math.Round(currentDifficulty))

	minDiff := rounded - 1
	if minDiff < int(minDifficulty) {
		minDiff = int(minDifficulty)
	}
	maxDiff := rounded + 1
	if maxDiff > int(maxDifficulty) {
		maxDiff = int(maxDifficulty)
	}

	return minDiff, maxDiff
}

// SelectBestDifficulty выбирает подходящий уровень из доступных:
// точное совпадение с округлённой сложностью, иначе ближайший по модулю.
// При равном расстоянии побеждает первый встреченный (стабильный проход, без пересортировки).
func (e *AdaptiveEngine) SelectBestDifficulty(currentDifficulty float64, available []int) int {
	rounded := int(math.Round(currentDifficulty))
	if len(available) == 0 {
		return rounded
	}

	for _, d := range available {
		if d == rounded {
			return d
		}
	}

	closest := available[0]
	for _, d := range available[1:] {
		if math.Abs(float64(d)-currentDifficulty) < math.Abs(float64(closest)-currentDifficulty) {
			closest = d
		}
	}
	return closest
}
