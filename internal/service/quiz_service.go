package service

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
	"github.com/yourusername/brainbolt-api/internal/domain/repository"
	"github.com/yourusername/brainbolt-api/internal/handler/dto"
	apperrors "github.com/yourusername/brainbolt-api/internal/pkg/errors"
	"github.com/yourusername/brainbolt-api/internal/service/quizengine"
)

const userStatsKeyPrefix = "user:stats:"

// QuizService координирует цикл "вопрос → ответ": подбор следующего вопроса,
// транзакционную обработку отправленного ответа и выдачу статистики игрока.
type QuizService struct {
	// runTx выполняет функцию в рамках транзакции БД
	runTx           func(fn func(tx *gorm.DB) error) error
	stateRepo       repository.UserStateRepository
	questionRepo    repository.QuestionRepository
	sessionRepo     repository.SessionRepository
	answerRepo      repository.AnswerRepository
	leaderboardRepo repository.LeaderboardRepository
	cacheRepo       repository.CacheRepository

	adaptiveEngine *quizengine.AdaptiveEngine
	scoreEngine    *quizengine.ScoreEngine
	selector       *quizengine.QuestionSelector
	guard          *IdempotencyGuard

	config *quizengine.Config
}

// NewQuizService создает новый сервис викторины
func NewQuizService(
	db *gorm.DB,
	stateRepo repository.UserStateRepository,
	questionRepo repository.QuestionRepository,
	sessionRepo repository.SessionRepository,
	answerRepo repository.AnswerRepository,
	leaderboardRepo repository.LeaderboardRepository,
	cacheRepo repository.CacheRepository,
	config *quizengine.Config,
) *QuizService {
	if config == nil {
		config = quizengine.DefaultConfig()
	}
	return &QuizService{
		runTx: func(fn func(tx *gorm.DB) error) error {
			return db.Transaction(fn)
		},
		stateRepo:       stateRepo,
		questionRepo:    questionRepo,
		sessionRepo:     sessionRepo,
		answerRepo:      answerRepo,
		leaderboardRepo: leaderboardRepo,
		cacheRepo:       cacheRepo,
		adaptiveEngine:  quizengine.NewAdaptiveEngine(),
		scoreEngine:     quizengine.NewScoreEngine(),
		selector:        quizengine.NewQuestionSelector(config, questionRepo, answerRepo),
		guard:           NewIdempotencyGuard(cacheRepo, config.IdempotencyTTL),
		config:          config,
	}
}

// GetNextQuestion подбирает пользователю следующий вопрос и фиксирует его
// как активный. Повторный вызов без ответа перезаписывает активный вопрос.
func (s *QuizService) GetNextQuestion(userID uint) (*dto.NextQuestionResponse, error) {
	state, err := s.stateRepo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}

	// Правило неактивности: простой дольше порога сгорает текущий стрик.
	// Проверяется лениво, при следующем обращении пользователя.
	if state.Streak > 0 && state.IsInactiveSince(time.Now(), s.config.InactivityThreshold) {
		log.Printf("[QuizService] Стрик пользователя #%d сгорел после простоя (последний ответ: %v)",
			userID, state.LastAnsweredAt)
		if err := s.stateRepo.ResetStreak(userID); err != nil {
			return nil, fmt.Errorf("failed to reset streak: %w", err)
		}
		state.Streak = 0
		s.invalidateUserStats(userID)
	}

	minDiff, maxDiff := s.adaptiveEngine.DifficultyRange(state.CurrentDifficulty)
	question, err := s.selector.Select(userID, minDiff, maxDiff)
	if err != nil {
		return nil, fmt.Errorf("failed to select question: %w", err)
	}

	if question == nil {
		// В окне сложности всё отвечено — расширяем до всей шкалы,
		// прежде чем объявить банк исчерпанным
		question, err = s.selector.Select(userID, int(entity.MinDifficulty), int(entity.MaxDifficulty))
		if err != nil {
			return nil, fmt.Errorf("failed to select question: %w", err)
		}
	}
	if question == nil {
		return nil, fmt.Errorf("%w: no unanswered questions available", apperrors.ErrNotFound)
	}

	if err := s.sessionRepo.Upsert(userID, question.ID); err != nil {
		return nil, fmt.Errorf("failed to set active question: %w", err)
	}

	return &dto.NextQuestionResponse{
		QuestionID:   question.ID,
		Prompt:       question.Prompt,
		Choices:      question.Choices,
		Difficulty:   question.Difficulty,
		StateVersion: state.StateVersion,
	}, nil
}

// SubmitAnswer обрабатывает ответ пользователя на активный вопрос.
//
// Порядок строгий: сначала durable-транзакция (состояние с проверкой версии,
// журнал ответов, строки лидербордов, очистка активного вопроса), затем
// best-effort обновления кеша. Сбой кеша не откатывает принятый ответ.
func (s *QuizService) SubmitAnswer(userID uint, choiceIndex int, stateVersion int64, idempotencyKey string) (*dto.AnswerResultResponse, error) {
	// Повтор с тем же ключом возвращает сохранённый результат без мутаций
	if idempotencyKey != "" {
		var cached dto.AnswerResultResponse
		if s.guard.Lookup(idempotencyKey, &cached) {
			log.Printf("[QuizService] Идемпотентный повтор для пользователя #%d (ключ %s)", userID, idempotencyKey)
			return &cached, nil
		}
	}

	session, err := s.sessionRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNoActiveQuestion
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !session.HasActiveQuestion() {
		return nil, apperrors.ErrNoActiveQuestion
	}

	question, err := s.questionRepo.GetByID(*session.CurrentQuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active question: %w", err)
	}

	if !question.IsValidChoice(choiceIndex) {
		return nil, fmt.Errorf("%w: choice index %d out of range [0, %d]",
			apperrors.ErrValidation, choiceIndex, question.ChoicesCount()-1)
	}

	var result *dto.AnswerResultResponse

	err = s.runTx(func(tx *gorm.DB) error {
		state, err := s.stateRepo.GetByUserIDTx(tx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user state: %w", err)
		}

		// Клиент отвечал, глядя на устаревшее состояние — пусть перечитает
		if state.StateVersion != stateVersion {
			log.Printf("[QuizService] Расхождение версии для пользователя #%d: клиент %d, БД %d",
				userID, stateVersion, state.StateVersion)
			return apperrors.ErrConflict
		}

		outcome := s.computeOutcome(state, question, choiceIndex)

		if err := s.stateRepo.ApplyAnswerTx(tx, userID, stateVersion, repository.UserStateUpdate{
			CurrentDifficulty: outcome.NewDifficulty,
			Momentum:          outcome.NewMomentum,
			Streak:            outcome.Streak,
			MaxStreak:         outcome.MaxStreak,
			TotalScore:        outcome.TotalScore,
		}); err != nil {
			return err
		}

		logKey := idempotencyKey
		if logKey == "" {
			// Клиент не прислал ключ — генерируем свой, журнал требует уникальности
			logKey = fmt.Sprintf("gen_%d_%s", userID, uuid.NewString())
		}
		if err := s.answerRepo.CreateTx(tx, &entity.AnswerLog{
			UserID:         userID,
			QuestionID:     question.ID,
			ChoiceIndex:    choiceIndex,
			Correct:        outcome.Correct,
			ScoreDelta:     outcome.ScoreDelta,
			StreakAtAnswer: state.Streak,
			IdempotencyKey: logKey,
			AnsweredAt:     time.Now(),
		}); err != nil {
			return err
		}

		if err := s.leaderboardRepo.UpdateScoreTx(tx, userID, outcome.TotalScore); err != nil {
			return fmt.Errorf("failed to update score projection: %w", err)
		}
		if err := s.leaderboardRepo.UpdateStreakTx(tx, userID, outcome.MaxStreak); err != nil {
			return fmt.Errorf("failed to update streak projection: %w", err)
		}

		// Вопрос потреблён независимо от правильности ответа
		if err := s.sessionRepo.ClearTx(tx, userID); err != nil {
			return fmt.Errorf("failed to clear active question: %w", err)
		}

		result = &dto.AnswerResultResponse{
			Correct:       outcome.Correct,
			CorrectIndex:  question.CorrectIndex,
			Explanation:   question.Explanation,
			ScoreDelta:    outcome.ScoreDelta,
			TotalScore:    outcome.TotalScore,
			Streak:        outcome.Streak,
			MaxStreak:     outcome.MaxStreak,
			NewDifficulty: outcome.NewDifficulty,
			StateVersion:  stateVersion + 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Зафиксировано в БД; дальше только best-effort кеш.
	// Значения пишутся из только что закоммиченных данных, поэтому
	// last-write-wins в Redis сходится к корректному состоянию.
	s.updateCacheLeaderboards(userID, result.TotalScore, result.MaxStreak)
	s.invalidateUserStats(userID)
	if idempotencyKey != "" {
		s.guard.Store(idempotencyKey, result)
	}

	return result, nil
}

// GetUserStats возвращает статистику игрока: снапшот из кеша либо сборка
// из состояния и агрегатов журнала с последующим кешированием.
func (s *QuizService) GetUserStats(userID uint) (*dto.UserStatsResponse, error) {
	cacheKey := fmt.Sprintf("%s%d", userStatsKeyPrefix, userID)

	var cached dto.UserStatsResponse
	if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	state, err := s.stateRepo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}

	answerStats, err := s.answerRepo.GetUserStats(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answer stats: %w", err)
	}

	// Точность в процентах с округлением до одного знака
	accuracy := 0.0
	if answerStats.TotalAnswered > 0 {
		accuracy = float64(answerStats.CorrectAnswers) / float64(answerStats.TotalAnswered) * 100
		accuracy = math.Round(accuracy*10) / 10
	}

	stats := &dto.UserStatsResponse{
		UserID:            userID,
		TotalScore:        state.TotalScore,
		CurrentStreak:     state.Streak,
		MaxStreak:         state.MaxStreak,
		CurrentDifficulty: state.CurrentDifficulty,
		TotalAnswered:     answerStats.TotalAnswered,
		CorrectAnswers:    answerStats.CorrectAnswers,
		Accuracy:          accuracy,
	}

	if err := s.cacheRepo.SetJSON(cacheKey, stats, s.config.UserStateTTL); err != nil {
		log.Printf("[QuizService] Ошибка кеширования статистики пользователя #%d: %v", userID, err)
	}

	return stats, nil
}

// CreateQuestions добавляет вопросы в банк (админская операция)
func (s *QuizService) CreateQuestions(reqs []dto.CreateQuestionRequest) (int, error) {
	questions := make([]entity.Question, 0, len(reqs))
	for i, req := range reqs {
		if *req.CorrectIndex >= len(req.Choices) {
			return 0, fmt.Errorf("%w: question #%d: correct_index %d out of range for %d choices",
				apperrors.ErrValidation, i, *req.CorrectIndex, len(req.Choices))
		}
		questions = append(questions, entity.Question{
			Prompt:       req.Prompt,
			Choices:      req.Choices,
			CorrectIndex: *req.CorrectIndex,
			Explanation:  req.Explanation,
			Difficulty:   req.Difficulty,
		})
	}

	if err := s.questionRepo.CreateBatch(questions); err != nil {
		return 0, fmt.Errorf("failed to create questions: %w", err)
	}
	log.Printf("[QuizService] Добавлено %d вопросов в банк", len(questions))
	return len(questions), nil
}

// answerOutcome — результат применения одного ответа к состоянию пользователя
type answerOutcome struct {
	Correct       bool
	ScoreDelta    int64
	Streak        int
	MaxStreak     int
	TotalScore    int64
	NewDifficulty float64
	NewMomentum   float64
}

// computeOutcome вычисляет новое состояние по результату ответа.
// Чистая функция: очки считаются от стрика ДО инкремента, MaxStreak монотонен.
func (s *QuizService) computeOutcome(state *entity.UserState, question *entity.Question, choiceIndex int) answerOutcome {
	correct := question.IsCorrect(choiceIndex)

	var scoreDelta int64
	newStreak := 0
	adaptive := quizengine.AdaptiveState{
		CurrentDifficulty: state.CurrentDifficulty,
		Momentum:          state.Momentum,
	}
	if correct {
		scoreDelta = s.scoreEngine.CalculateDelta(state.CurrentDifficulty, state.Streak)
		newStreak = state.Streak + 1
		adaptive = s.adaptiveEngine.AdjustOnCorrect(adaptive)
	} else {
		adaptive = s.adaptiveEngine.AdjustOnWrong(adaptive)
	}

	newMaxStreak := state.MaxStreak
	if newStreak > newMaxStreak {
		newMaxStreak = newStreak
	}

	return answerOutcome{
		Correct:       correct,
		ScoreDelta:    scoreDelta,
		Streak:        newStreak,
		MaxStreak:     newMaxStreak,
		TotalScore:    state.TotalScore + scoreDelta,
		NewDifficulty: adaptive.CurrentDifficulty,
		NewMomentum:   adaptive.Momentum,
	}
}

func (s *QuizService) updateCacheLeaderboards(userID uint, totalScore int64, maxStreak int) {
	member := fmt.Sprintf("%d", userID)
	if err := s.cacheRepo.ZAdd(leaderboardScoreKey, member, float64(totalScore)); err != nil {
		log.Printf("[QuizService] Ошибка обновления score-лидерборда для пользователя #%d: %v", userID, err)
	}
	if err := s.cacheRepo.ZAdd(leaderboardStreakKey, member, float64(maxStreak)); err != nil {
		log.Printf("[QuizService] Ошибка обновления streak-лидерборда для пользователя #%d: %v", userID, err)
	}
}

func (s *QuizService) invalidateUserStats(userID uint) {
	key := fmt.Sprintf("%s%d", userStatsKeyPrefix, userID)
	if err := s.cacheRepo.Delete(key); err != nil {
		log.Printf("[QuizService] Ошибка инвалидации статистики пользователя #%d: %v", userID, err)
	}
}
