package quizengine

import (
	"log"
	"math/rand"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
	"github.com/yourusername/brainbolt-api/internal/domain/repository"
)

// QuestionSelector подбирает пользователю ещё не виденный вопрос в окне сложности
type QuestionSelector struct {
	config       *Config
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
}

// NewQuestionSelector создаёт селектор вопросов
func NewQuestionSelector(
	config *Config,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
) *QuestionSelector {
	return &QuestionSelector{
		config:       config,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
	}
}

// Select возвращает случайный вопрос со сложностью в [minDiff, maxDiff],
// исключая последние RecentQuestionWindow отвеченных вопросов пользователя.
// nil без ошибки — в заданном окне кандидатов нет (вызывающий расширяет окно).
func (s *QuestionSelector) Select(userID uint, minDiff, maxDiff int) (*entity.Question, error) {
	excludeIDs, err := s.answerRepo.GetRecentQuestionIDs(userID, s.config.RecentQuestionWindow)
	if err != nil {
		return nil, err
	}

	candidates, err := s.questionRepo.FindByDifficultyRange(minDiff, maxDiff, excludeIDs, s.config.CandidatePoolSize)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		log.Printf("[QuestionSelector] Нет кандидатов для пользователя #%d в окне сложности [%d, %d] (исключено %d)",
			userID, minDiff, maxDiff, len(excludeIDs))
		return nil, nil
	}

	// Равновероятный выбор среди первых K кандидатов
	pick := candidates[rand.Intn(len(candidates))]
	return &pick, nil
}
