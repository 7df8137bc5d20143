package quizengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveEngine_AdjustOnCorrect_MomentumGrowth(t *testing.T) {
	// Arrange
	engine := NewAdaptiveEngine()

	// Act
	next := engine.AdjustOnCorrect(AdaptiveState{CurrentDifficulty: 5.0, Momentum: 0.0})

	// Assert: momentum вырос на 0.15, сложность не изменилась (ниже порога гистерезиса)
	assert.InDelta(t, 0.15, next.Momentum, 1e-9)
	assert.Equal(t, 5.0, next.CurrentDifficulty, "сложность не должна расти, пока momentum < 0.3")
}

func TestAdaptiveEngine_AdjustOnCorrect_HysteresisCrossed(t *testing.T) {
	// Arrange: сценарий из бизнес-правил — difficulty=5.0, momentum=0.2
	engine := NewAdaptiveEngine()

	// Act
	next := engine.AdjustOnCorrect(AdaptiveState{CurrentDifficulty: 5.0, Momentum: 0.2})

	// Assert: momentum=0.35 пересёк порог 0.3 → сложность растёт на 0.5*(1+0.35*0.3)
	assert.InDelta(t, 0.35, next.Momentum, 1e-9)
	assert.InDelta(t, 5.5525, next.CurrentDifficulty, 1e-9)
}

func TestAdaptiveEngine_AdjustOnCorrect_MomentumCap(t *testing.T) {
	// Arrange
	engine := NewAdaptiveEngine()

	// Act
	next := engine.AdjustOnCorrect(AdaptiveState{CurrentDifficulty: 7.0, Momentum: 1.45})

	// Assert: momentum ограничен 1.5
	assert.InDelta(t, 1.5, next.Momentum, 1e-9, "momentum не должен превышать 1.5")
}

func TestAdaptiveEngine_AdjustOnCorrect_DifficultyCap(t *testing.T) {
	// Arrange: пользователь у потолка сложности
	engine := NewAdaptiveEngine()

	// Act
	next := engine.AdjustOnCorrect(AdaptiveState{CurrentDifficulty: 9.9, Momentum: 1.5})

	// Assert
	assert.Equal(t, 10.0, next.CurrentDifficulty, "сложность не должна превышать 10")
}

func TestAdaptiveEngine_AdjustOnWrong(t *testing.T) {
	// Arrange
	engine := NewAdaptiveEngine()

	testCases := []struct {
		name           string
		state          AdaptiveState
		wantDifficulty float64
		wantMomentum   float64
	}{
		{"обычное снижение", AdaptiveState{CurrentDifficulty: 5.0, Momentum: 0.8}, 4.2, 0.4},
		{"momentum делится пополам, не обнуляется", AdaptiveState{CurrentDifficulty: 3.0, Momentum: 1.2}, 2.2, 0.6},
		{"сложность не опускается ниже 1", AdaptiveState{CurrentDifficulty: 1.3, Momentum: 0.1}, 1.0, 0.05},
		{"нулевой momentum остаётся нулевым", AdaptiveState{CurrentDifficulty: 2.0, Momentum: 0.0}, 1.2, 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			next := engine.AdjustOnWrong(tc.state)

			// Assert: снижение безусловное, без гистерезиса на пути вниз
			assert.InDelta(t, tc.wantDifficulty, next.CurrentDifficulty, 1e-9)
			assert.InDelta(t, tc.wantMomentum, next.Momentum, 1e-9)
		})
	}
}

func TestAdaptiveEngine_DifficultyRange(t *testing.T) {
	// Arrange
	engine := NewAdaptiveEngine()

	testCases := []struct {
		name       string
		difficulty float64
		wantMin    int
		wantMax    int
	}{
		{"середина шкалы", 5.4, 4, 6},
		{"нижняя граница", 1.0, 1, 2},
		{"верхняя граница", 10.0, 9, 10},
		{"округление вверх", 5.5, 5, 7},
		{"около нижней границы", 1.6, 1, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			gotMin, gotMax := engine.DifficultyRange(tc.difficulty)

			// Assert
			assert.Equal(t, tc.wantMin, gotMin)
			assert.Equal(t, tc.wantMax, gotMax)
		})
	}
}

func TestAdaptiveEngine_SelectBestDifficulty(t *testing.T) {
	// Arrange
	engine := NewAdaptiveEngine()

	testCases := []struct {
		name       string
		difficulty float64
		available  []int
		want       int
	}{
		{"ближайший по модулю", 5.6, []int{3, 5, 8}, 5},
		{"точное совпадение предпочтительнее", 5.0, []int{5, 8}, 5},
		{"при равном расстоянии побеждает первый встреченный", 5.0, []int{4, 6}, 4},
		{"пустой список — округлённая текущая", 5.6, nil, 6},
		{"единственный кандидат", 2.0, []int{9}, 9},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act & Assert
			assert.Equal(t, tc.want, engine.SelectBestDifficulty(tc.difficulty, tc.available))
		})
	}
}
