package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
	"github.com/yourusername/brainbolt-api/internal/domain/repository"
	"github.com/yourusername/brainbolt-api/internal/handler/dto"
	apperrors "github.com/yourusername/brainbolt-api/internal/pkg/errors"
	"github.com/yourusername/brainbolt-api/internal/service/quizengine"
)

// ============================================================================
// Моки для QuizService
// ============================================================================

func timePtr(t time.Time) *time.Time { return &t }
func uintPtr(v uint) *uint           { return &v }

// MockUserStateRepo реализует repository.UserStateRepository
type MockUserStateRepo struct {
	mock.Mock
}

func (m *MockUserStateRepo) Create(state *entity.UserState) error {
	args := m.Called(state)
	return args.Error(0)
}

func (m *MockUserStateRepo) CreateTx(tx *gorm.DB, state *entity.UserState) error {
	args := m.Called(tx, state)
	return args.Error(0)
}

func (m *MockUserStateRepo) GetByUserID(userID uint) (*entity.UserState, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserState), args.Error(1)
}

func (m *MockUserStateRepo) GetByUserIDTx(tx *gorm.DB, userID uint) (*entity.UserState, error) {
	args := m.Called(tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserState), args.Error(1)
}

func (m *MockUserStateRepo) ApplyAnswerTx(tx *gorm.DB, userID uint, expectedVersion int64, upd repository.UserStateUpdate) error {
	args := m.Called(tx, userID, expectedVersion, upd)
	return args.Error(0)
}

func (m *MockUserStateRepo) ResetStreak(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockQuestionRepo реализует repository.QuestionRepository
type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) Create(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepo) CreateBatch(questions []entity.Question) error {
	args := m.Called(questions)
	return args.Error(0)
}

func (m *MockQuestionRepo) GetByID(id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) FindByDifficultyRange(minDiff, maxDiff int, excludeIDs []uint, limit int) ([]entity.Question, error) {
	args := m.Called(minDiff, maxDiff, excludeIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) CountByDifficulty(difficulty int) (int64, error) {
	args := m.Called(difficulty)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionRepo реализует repository.SessionRepository
type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Upsert(userID, questionID uint) error {
	args := m.Called(userID, questionID)
	return args.Error(0)
}

func (m *MockSessionRepo) GetByUserID(userID uint) (*entity.QuizSession, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.QuizSession), args.Error(1)
}

func (m *MockSessionRepo) ClearTx(tx *gorm.DB, userID uint) error {
	args := m.Called(tx, userID)
	return args.Error(0)
}

// MockAnswerRepo реализует repository.AnswerRepository
type MockAnswerRepo struct {
	mock.Mock
}

func (m *MockAnswerRepo) CreateTx(tx *gorm.DB, answer *entity.AnswerLog) error {
	args := m.Called(tx, answer)
	return args.Error(0)
}

func (m *MockAnswerRepo) GetRecentQuestionIDs(userID uint, limit int) ([]uint, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockAnswerRepo) GetUserStats(userID uint) (*repository.AnswerStats, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.AnswerStats), args.Error(1)
}

func (m *MockAnswerRepo) GetUserAnswers(userID uint, limit, offset int) ([]entity.AnswerLog, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AnswerLog), args.Error(1)
}

// MockLeaderboardRepo реализует repository.LeaderboardRepository
type MockLeaderboardRepo struct {
	mock.Mock
}

func (m *MockLeaderboardRepo) CreateRowsTx(tx *gorm.DB, userID uint, username string) error {
	args := m.Called(tx, userID, username)
	return args.Error(0)
}

func (m *MockLeaderboardRepo) UpdateScoreTx(tx *gorm.DB, userID uint, totalScore int64) error {
	args := m.Called(tx, userID, totalScore)
	return args.Error(0)
}

func (m *MockLeaderboardRepo) UpdateStreakTx(tx *gorm.DB, userID uint, maxStreak int) error {
	args := m.Called(tx, userID, maxStreak)
	return args.Error(0)
}

func (m *MockLeaderboardRepo) TopByScore(limit int) ([]entity.LeaderboardScore, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeaderboardScore), args.Error(1)
}

func (m *MockLeaderboardRepo) TopByStreak(limit int) ([]entity.LeaderboardStreak, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeaderboardStreak), args.Error(1)
}

func (m *MockLeaderboardRepo) GetUsernames(userIDs []uint) (map[uint]string, error) {
	args := m.Called(userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]string), args.Error(1)
}

// MockCacheRepo реализует repository.CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepo) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepo) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepo) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepo) ZAdd(set string, member string, score float64) error {
	args := m.Called(set, member, score)
	return args.Error(0)
}

func (m *MockCacheRepo) ZTopN(set string, n int64) ([]repository.ZMember, error) {
	args := m.Called(set, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ZMember), args.Error(1)
}

func (m *MockCacheRepo) ZRevRank(set string, member string) (int64, error) {
	args := m.Called(set, member)
	return args.Get(0).(int64), args.Error(1)
}

// ============================================================================
// Хелперы
// ============================================================================

type quizServiceMocks struct {
	stateRepo       *MockUserStateRepo
	questionRepo    *MockQuestionRepo
	sessionRepo     *MockSessionRepo
	answerRepo      *MockAnswerRepo
	leaderboardRepo *MockLeaderboardRepo
	cacheRepo       *MockCacheRepo
}

// runTx вызывает функцию с tx=nil: Tx-методы отрабатывают моки,
// а сама логика SubmitAnswer проходится целиком
func newTestQuizService() (*QuizService, *quizServiceMocks) {
	mocks := &quizServiceMocks{
		stateRepo:       new(MockUserStateRepo),
		questionRepo:    new(MockQuestionRepo),
		sessionRepo:     new(MockSessionRepo),
		answerRepo:      new(MockAnswerRepo),
		leaderboardRepo: new(MockLeaderboardRepo),
		cacheRepo:       new(MockCacheRepo),
	}
	config := quizengine.DefaultConfig()
	svc := &QuizService{
		runTx: func(fn func(tx *gorm.DB) error) error {
			return fn(nil)
		},
		stateRepo:       mocks.stateRepo,
		questionRepo:    mocks.questionRepo,
		sessionRepo:     mocks.sessionRepo,
		answerRepo:      mocks.answerRepo,
		leaderboardRepo: mocks.leaderboardRepo,
		cacheRepo:       mocks.cacheRepo,
		adaptiveEngine:  quizengine.NewAdaptiveEngine(),
		scoreEngine:     quizengine.NewScoreEngine(),
		selector:        quizengine.NewQuestionSelector(config, mocks.questionRepo, mocks.answerRepo),
		guard:           NewIdempotencyGuard(mocks.cacheRepo, config.IdempotencyTTL),
		config:          config,
	}
	return svc, mocks
}

func testQuestion() *entity.Question {
	return &entity.Question{
		ID:           42,
		Prompt:       "Столица Казахстана?",
		Choices:      entity.StringArray{"Астана", "Алматы", "Шымкент", "Караганда"},
		CorrectIndex: 0,
		Explanation:  "С 2019 по 2022 город назывался Нур-Султан",
		Difficulty:   3,
	}
}

// ============================================================================
// Тесты computeOutcome — ядро начисления
// ============================================================================

func TestQuizService_ComputeOutcome_CorrectAnswer(t *testing.T) {
	svc, _ := newTestQuizService()

	state := &entity.UserState{
		UserID:            1,
		CurrentDifficulty: 5.0,
		Momentum:          0.2,
		Streak:            3,
		MaxStreak:         7,
		TotalScore:        1000,
	}

	outcome := svc.computeOutcome(state, testQuestion(), 0)

	assert.True(t, outcome.Correct)
	// Очки от стрика ДО инкремента: floor(5)*10*min(1+3*0.1, 3) = 50*1.3 = 65
	assert.Equal(t, int64(65), outcome.ScoreDelta)
	assert.Equal(t, int64(1065), outcome.TotalScore)
	assert.Equal(t, 4, outcome.Streak)
	assert.Equal(t, 7, outcome.MaxStreak, "MaxStreak не должен меняться, пока стрик ниже рекорда")
	// Momentum 0.2+0.15=0.35 пересёк порог 0.3 → сложность растёт
	assert.InDelta(t, 0.35, outcome.NewMomentum, 1e-9)
	assert.InDelta(t, 5.0+0.5*(1+0.35*0.3), outcome.NewDifficulty, 1e-9)
}

func TestQuizService_ComputeOutcome_CorrectBelowHysteresis(t *testing.T) {
	svc, _ := newTestQuizService()

	state := &entity.UserState{
		UserID:            1,
		CurrentDifficulty: 4.0,
		Momentum:          0.0,
		Streak:            0,
	}

	outcome := svc.computeOutcome(state, testQuestion(), 0)

	assert.True(t, outcome.Correct)
	// Первый правильный ответ: momentum 0.15 < 0.3 → сложность не меняется
	assert.InDelta(t, 0.15, outcome.NewMomentum, 1e-9)
	assert.InDelta(t, 4.0, outcome.NewDifficulty, 1e-9)
	// floor(4)*10*min(1+0, 3) = 40
	assert.Equal(t, int64(40), outcome.ScoreDelta)
	assert.Equal(t, 1, outcome.Streak)
	assert.Equal(t, 1, outcome.MaxStreak)
}

func TestQuizService_ComputeOutcome_WrongAnswer(t *testing.T) {
	svc, _ := newTestQuizService()

	state := &entity.UserState{
		UserID:            1,
		CurrentDifficulty: 5.0,
		Momentum:          1.0,
		Streak:            8,
		MaxStreak:         8,
		TotalScore:        2000,
	}

	outcome := svc.computeOutcome(state, testQuestion(), 2)

	assert.False(t, outcome.Correct)
	assert.Equal(t, int64(0), outcome.ScoreDelta, "За неправильный ответ очки не начисляются")
	assert.Equal(t, int64(2000), outcome.TotalScore)
	assert.Equal(t, 0, outcome.Streak, "Стрик обнуляется")
	assert.Equal(t, 8, outcome.MaxStreak, "MaxStreak монотонен, рекорд сохраняется")
	assert.InDelta(t, 0.5, outcome.NewMomentum, 1e-9, "Momentum делится пополам")
	assert.InDelta(t, 4.2, outcome.NewDifficulty, 1e-9, "Сложность снижается на 0.8")
}

func TestQuizService_ComputeOutcome_WrongAtMinDifficulty(t *testing.T) {
	svc, _ := newTestQuizService()

	state := &entity.UserState{
		UserID:            1,
		CurrentDifficulty: 1.0,
		Momentum:          0.1,
	}

	outcome := svc.computeOutcome(state, testQuestion(), 1)

	assert.InDelta(t, 1.0, outcome.NewDifficulty, 1e-9, "Сложность не опускается ниже минимума")
}

// ============================================================================
// Тесты GetNextQuestion
// ============================================================================

func TestQuizService_GetNextQuestion_Success(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	state := &entity.UserState{
		UserID:            1,
		CurrentDifficulty: 5.0,
		Streak:            2,
		StateVersion:      7,
		LastAnsweredAt:    timePtr(time.Now().Add(-5 * time.Minute)),
	}
	question := testQuestion()

	mocks.stateRepo.On("GetByUserID", uint(1)).Return(state, nil)
	mocks.answerRepo.On("GetRecentQuestionIDs", uint(1), 20).Return([]uint{10, 11}, nil)
	// Округлённая сложность 5 → окно [4, 6]
	mocks.questionRepo.On("FindByDifficultyRange", 4, 6, mock.Anything, 10).
		Return([]entity.Question{*question}, nil)
	mocks.sessionRepo.On("Upsert", uint(1), uint(42)).Return(nil)

	// Act
	resp, err := svc.GetNextQuestion(1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(42), resp.QuestionID)
	assert.Equal(t, "Столица Казахстана?", resp.Prompt)
	assert.Len(t, resp.Choices, 4)
	assert.Equal(t, int64(7), resp.StateVersion, "Клиент получает текущую версию состояния")
	mocks.sessionRepo.AssertExpectations(t)
	mocks.stateRepo.AssertNotCalled(t, "ResetStreak", mock.Anything)
}

func TestQuizService_GetNextQuestion_InactivityResetsStreak(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	state := &entity.UserState{
		UserID:            1,
		CurrentDifficulty: 3.0,
		Streak:            6,
		LastAnsweredAt:    timePtr(time.Now().Add(-45 * time.Minute)), // больше порога в 30 минут
	}

	mocks.stateRepo.On("GetByUserID", uint(1)).Return(state, nil)
	mocks.stateRepo.On("ResetStreak", uint(1)).Return(nil)
	mocks.cacheRepo.On("Delete", "user:stats:1").Return(nil)
	mocks.answerRepo.On("GetRecentQuestionIDs", uint(1), 20).Return([]uint{}, nil)
	mocks.questionRepo.On("FindByDifficultyRange", 2, 4, mock.Anything, 10).
		Return([]entity.Question{*testQuestion()}, nil)
	mocks.sessionRepo.On("Upsert", uint(1), uint(42)).Return(nil)

	// Act
	_, err := svc.GetNextQuestion(1)

	// Assert
	require.NoError(t, err)
	mocks.stateRepo.AssertCalled(t, "ResetStreak", uint(1))
}

func TestQuizService_GetNextQuestion_WidensWindowWhenExhausted(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	state := &entity.UserState{UserID: 1, CurrentDifficulty: 5.0}

	mocks.stateRepo.On("GetByUserID", uint(1)).Return(state, nil)
	mocks.answerRepo.On("GetRecentQuestionIDs", uint(1), 20).Return([]uint{}, nil)
	// В узком окне всё отвечено, по всей шкале вопрос находится
	mocks.questionRepo.On("FindByDifficultyRange", 4, 6, mock.Anything, 10).
		Return([]entity.Question{}, nil)
	mocks.questionRepo.On("FindByDifficultyRange", 1, 10, mock.Anything, 10).
		Return([]entity.Question{*testQuestion()}, nil)
	mocks.sessionRepo.On("Upsert", uint(1), uint(42)).Return(nil)

	// Act
	resp, err := svc.GetNextQuestion(1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(42), resp.QuestionID)
	mocks.questionRepo.AssertExpectations(t)
}

func TestQuizService_GetNextQuestion_BankExhausted(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	state := &entity.UserState{UserID: 1, CurrentDifficulty: 1.0}

	mocks.stateRepo.On("GetByUserID", uint(1)).Return(state, nil)
	mocks.answerRepo.On("GetRecentQuestionIDs", uint(1), 20).Return([]uint{}, nil)
	mocks.questionRepo.On("FindByDifficultyRange", mock.Anything, mock.Anything, mock.Anything, 10).
		Return([]entity.Question{}, nil)

	// Act
	resp, err := svc.GetNextQuestion(1)

	// Assert
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	mocks.sessionRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

// ============================================================================
// Тесты SubmitAnswer — пред-транзакционные проверки
// ============================================================================

func TestQuizService_SubmitAnswer_IdempotentReplay(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	saved := dto.AnswerResultResponse{
		Correct:      true,
		ScoreDelta:   65,
		TotalScore:   1065,
		Streak:       4,
		StateVersion: 8,
	}
	data, err := json.Marshal(saved)
	require.NoError(t, err)

	mocks.cacheRepo.On("Get", "idempotency:req-123").Return(string(data), nil)

	// Act
	result, err := svc.SubmitAnswer(1, 0, 7, "req-123")

	// Assert: сохранённый результат возвращён без обращения к БД
	require.NoError(t, err)
	assert.Equal(t, saved, *result)
	mocks.sessionRepo.AssertNotCalled(t, "GetByUserID", mock.Anything)
	mocks.stateRepo.AssertNotCalled(t, "GetByUserIDTx", mock.Anything, mock.Anything)
}

func TestQuizService_SubmitAnswer_NoSession(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	mocks.cacheRepo.On("Get", "idempotency:req-1").Return("", apperrors.ErrNotFound)
	mocks.sessionRepo.On("GetByUserID", uint(1)).Return(nil, apperrors.ErrNotFound)

	// Act
	result, err := svc.SubmitAnswer(1, 0, 0, "req-1")

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveQuestion)
}

func TestQuizService_SubmitAnswer_SessionWithoutActiveQuestion(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	// Сессия есть, но вопрос уже потреблён предыдущим ответом
	mocks.cacheRepo.On("Get", "idempotency:req-2").Return("", apperrors.ErrNotFound)
	mocks.sessionRepo.On("GetByUserID", uint(1)).
		Return(&entity.QuizSession{UserID: 1, CurrentQuestionID: nil}, nil)

	// Act
	result, err := svc.SubmitAnswer(1, 0, 0, "req-2")

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveQuestion)
}

func TestQuizService_SubmitAnswer_InvalidChoiceIndex(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	mocks.cacheRepo.On("Get", "idempotency:req-3").Return("", apperrors.ErrNotFound)
	mocks.sessionRepo.On("GetByUserID", uint(1)).
		Return(&entity.QuizSession{UserID: 1, CurrentQuestionID: uintPtr(42)}, nil)
	mocks.questionRepo.On("GetByID", uint(42)).Return(testQuestion(), nil)

	// Act: у вопроса 4 варианта, индекс 7 вне диапазона
	result, err := svc.SubmitAnswer(1, 7, 0, "req-3")

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestQuizService_SubmitAnswer_StaleVersionConflict(t *testing.T) {
	// Arrange: клиент отвечает с версией 4, в БД уже версия 9
	svc, mocks := newTestQuizService()

	mocks.sessionRepo.On("GetByUserID", uint(1)).
		Return(&entity.QuizSession{UserID: 1, CurrentQuestionID: uintPtr(42)}, nil)
	mocks.questionRepo.On("GetByID", uint(42)).Return(testQuestion(), nil)
	mocks.stateRepo.On("GetByUserIDTx", mock.Anything, uint(1)).
		Return(&entity.UserState{UserID: 1, StateVersion: 9, CurrentDifficulty: 5.0}, nil)

	// Act
	result, err := svc.SubmitAnswer(1, 0, 4, "")

	// Assert: конфликт, состояние не мутировано
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	mocks.stateRepo.AssertNotCalled(t, "ApplyAnswerTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mocks.answerRepo.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything)
	mocks.cacheRepo.AssertNotCalled(t, "ZAdd", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuizService_SubmitAnswer_LostRaceConflict(t *testing.T) {
	// Arrange: версия совпала при чтении, но конкурент успел закоммитить
	// первым — условный UPDATE не затронул строк
	svc, mocks := newTestQuizService()

	mocks.sessionRepo.On("GetByUserID", uint(1)).
		Return(&entity.QuizSession{UserID: 1, CurrentQuestionID: uintPtr(42)}, nil)
	mocks.questionRepo.On("GetByID", uint(42)).Return(testQuestion(), nil)
	mocks.stateRepo.On("GetByUserIDTx", mock.Anything, uint(1)).
		Return(&entity.UserState{UserID: 1, StateVersion: 7, CurrentDifficulty: 5.0}, nil)
	mocks.stateRepo.On("ApplyAnswerTx", mock.Anything, uint(1), int64(7), mock.Anything).
		Return(apperrors.ErrConflict)

	// Act
	result, err := svc.SubmitAnswer(1, 0, 7, "")

	// Assert: журнал и проекции не трогаются
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	mocks.answerRepo.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything)
	mocks.leaderboardRepo.AssertNotCalled(t, "UpdateScoreTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuizService_SubmitAnswer_Success(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	state := &entity.UserState{
		UserID:            1,
		CurrentDifficulty: 5.0,
		Momentum:          0.2,
		Streak:            3,
		MaxStreak:         7,
		TotalScore:        1000,
		StateVersion:      7,
	}

	mocks.cacheRepo.On("Get", "idempotency:req-9").Return("", apperrors.ErrNotFound)
	mocks.sessionRepo.On("GetByUserID", uint(1)).
		Return(&entity.QuizSession{UserID: 1, CurrentQuestionID: uintPtr(42)}, nil)
	mocks.questionRepo.On("GetByID", uint(42)).Return(testQuestion(), nil)
	mocks.stateRepo.On("GetByUserIDTx", mock.Anything, uint(1)).Return(state, nil)
	mocks.stateRepo.On("ApplyAnswerTx", mock.Anything, uint(1), int64(7),
		mock.MatchedBy(func(upd repository.UserStateUpdate) bool {
			return upd.TotalScore == 1065 && upd.Streak == 4 && upd.MaxStreak == 7
		})).Return(nil)
	mocks.answerRepo.On("CreateTx", mock.Anything,
		mock.MatchedBy(func(rec *entity.AnswerLog) bool {
			return rec.IdempotencyKey == "req-9" && rec.StreakAtAnswer == 3 && rec.Correct
		})).Return(nil)
	mocks.leaderboardRepo.On("UpdateScoreTx", mock.Anything, uint(1), int64(1065)).Return(nil)
	mocks.leaderboardRepo.On("UpdateStreakTx", mock.Anything, uint(1), 7).Return(nil)
	mocks.sessionRepo.On("ClearTx", mock.Anything, uint(1)).Return(nil)
	mocks.cacheRepo.On("ZAdd", "leaderboard:score", "1", float64(1065)).Return(nil)
	mocks.cacheRepo.On("ZAdd", "leaderboard:streak", "1", float64(7)).Return(nil)
	mocks.cacheRepo.On("Delete", "user:stats:1").Return(nil)
	mocks.cacheRepo.On("SetNX", "idempotency:req-9", mock.Anything, mock.Anything).Return(true, nil)

	// Act
	result, err := svc.SubmitAnswer(1, 0, 7, "req-9")

	// Assert: версия продвинулась ровно на единицу, UPDATE был один
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, int64(65), result.ScoreDelta)
	assert.Equal(t, int64(1065), result.TotalScore)
	assert.Equal(t, int64(8), result.StateVersion)
	mocks.stateRepo.AssertNumberOfCalls(t, "ApplyAnswerTx", 1)
	mocks.sessionRepo.AssertCalled(t, "ClearTx", mock.Anything, uint(1))
	mocks.cacheRepo.AssertCalled(t, "SetNX", "idempotency:req-9", mock.Anything, mock.Anything)
}

func TestQuizService_SubmitAnswer_CacheFailuresNotSurfaced(t *testing.T) {
	// Arrange: Redis лежит целиком — коммит в БД прошёл, ответ всё равно успешный
	svc, mocks := newTestQuizService()

	state := &entity.UserState{
		UserID:            1,
		CurrentDifficulty: 5.0,
		Momentum:          0.2,
		Streak:            3,
		MaxStreak:         7,
		TotalScore:        1000,
		StateVersion:      7,
	}
	redisDown := errors.New("connection refused")

	mocks.cacheRepo.On("Get", "idempotency:req-11").Return("", redisDown)
	mocks.sessionRepo.On("GetByUserID", uint(1)).
		Return(&entity.QuizSession{UserID: 1, CurrentQuestionID: uintPtr(42)}, nil)
	mocks.questionRepo.On("GetByID", uint(42)).Return(testQuestion(), nil)
	mocks.stateRepo.On("GetByUserIDTx", mock.Anything, uint(1)).Return(state, nil)
	mocks.stateRepo.On("ApplyAnswerTx", mock.Anything, uint(1), int64(7), mock.Anything).Return(nil)
	mocks.answerRepo.On("CreateTx", mock.Anything, mock.Anything).Return(nil)
	mocks.leaderboardRepo.On("UpdateScoreTx", mock.Anything, uint(1), int64(1065)).Return(nil)
	mocks.leaderboardRepo.On("UpdateStreakTx", mock.Anything, uint(1), 7).Return(nil)
	mocks.sessionRepo.On("ClearTx", mock.Anything, uint(1)).Return(nil)
	mocks.cacheRepo.On("ZAdd", mock.Anything, mock.Anything, mock.Anything).Return(redisDown)
	mocks.cacheRepo.On("Delete", "user:stats:1").Return(redisDown)
	mocks.cacheRepo.On("SetNX", "idempotency:req-11", mock.Anything, mock.Anything).Return(false, redisDown)

	// Act
	result, err := svc.SubmitAnswer(1, 0, 7, "req-11")

	// Assert: ошибки кеша только логируются
	require.NoError(t, err)
	assert.Equal(t, int64(1065), result.TotalScore)
	assert.Equal(t, int64(8), result.StateVersion)
}

// ============================================================================
// Тесты GetUserStats
// ============================================================================

func TestQuizService_GetUserStats_AssemblesFromDB(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	state := &entity.UserState{
		UserID:            1,
		TotalScore:        1500,
		Streak:            3,
		MaxStreak:         9,
		CurrentDifficulty: 6.4,
	}

	mocks.cacheRepo.On("GetJSON", "user:stats:1", mock.Anything).Return(apperrors.ErrNotFound)
	mocks.stateRepo.On("GetByUserID", uint(1)).Return(state, nil)
	mocks.answerRepo.On("GetUserStats", uint(1)).
		Return(&repository.AnswerStats{TotalAnswered: 27, CorrectAnswers: 20}, nil)
	mocks.cacheRepo.On("SetJSON", "user:stats:1", mock.Anything, mock.Anything).Return(nil)

	// Act
	stats, err := svc.GetUserStats(1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1500), stats.TotalScore)
	assert.Equal(t, 9, stats.MaxStreak)
	// 20/27 = 74.07...% → округляется до 74.1
	assert.InDelta(t, 74.1, stats.Accuracy, 1e-9)
	mocks.cacheRepo.AssertCalled(t, "SetJSON", "user:stats:1", mock.Anything, mock.Anything)
}

func TestQuizService_GetUserStats_ZeroAnswers(t *testing.T) {
	// Arrange
	svc, mocks := newTestQuizService()

	mocks.cacheRepo.On("GetJSON", "user:stats:2", mock.Anything).Return(apperrors.ErrNotFound)
	mocks.stateRepo.On("GetByUserID", uint(2)).
		Return(&entity.UserState{UserID: 2, CurrentDifficulty: 1.0}, nil)
	mocks.answerRepo.On("GetUserStats", uint(2)).
		Return(&repository.AnswerStats{}, nil)
	mocks.cacheRepo.On("SetJSON", "user:stats:2", mock.Anything, mock.Anything).Return(nil)

	// Act
	stats, err := svc.GetUserStats(2)

	// Assert: деления на ноль нет, accuracy = 0
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.Accuracy)
}
