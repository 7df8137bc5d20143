package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
	"github.com/yourusername/brainbolt-api/internal/domain/repository"
	"github.com/yourusername/brainbolt-api/internal/handler/dto"
	apperrors "github.com/yourusername/brainbolt-api/internal/pkg/errors"
	"github.com/yourusername/brainbolt-api/internal/service/quizengine"
)

// Redis ZSET-ключи кешированных лидербордов
const (
	leaderboardScoreKey  = "leaderboard:score"
	leaderboardStreakKey = "leaderboard:streak"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// LeaderboardService отдаёт таблицы лидеров: быстрый путь через Redis ZSET,
// fallback на durable-проекции в Postgres. Кеш — производные данные,
// восстанавливаемые из БД в любой момент (RebuildAll).
type LeaderboardService struct {
	leaderboardRepo repository.LeaderboardRepository
	cacheRepo       repository.CacheRepository
	config          *quizengine.Config
}

// NewLeaderboardService создает новый сервис лидербордов
func NewLeaderboardService(
	leaderboardRepo repository.LeaderboardRepository,
	cacheRepo repository.CacheRepository,
	config *quizengine.Config,
) *LeaderboardService {
	if config == nil {
		config = quizengine.DefaultConfig()
	}
	return &LeaderboardService{
		leaderboardRepo: leaderboardRepo,
		cacheRepo:       cacheRepo,
		config:          config,
	}
}

// GetLeaderboard возвращает топ-N запрошенного вида ("score" или "streak")
func (s *LeaderboardService) GetLeaderboard(kind string, limit int) (*dto.LeaderboardResponse, error) {
	if kind != entity.LeaderboardKindScore && kind != entity.LeaderboardKindStreak {
		return nil, fmt.Errorf("%w: unknown leaderboard kind %q", apperrors.ErrValidation, kind)
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := s.getFromCache(kind, limit)
	if err != nil {
		log.Printf("[LeaderboardService] Кеш недоступен для %s, fallback на БД: %v", kind, err)
		entries, err = s.getFromDB(kind, limit)
		if err != nil {
			return nil, err
		}
	}

	return &dto.LeaderboardResponse{Kind: kind, Entries: entries}, nil
}

// GetUserRank возвращает позицию пользователя в кешированном лидерборде.
// Rank == nil — пользователь в таблице отсутствует.
func (s *LeaderboardService) GetUserRank(kind string, userID uint) (*dto.UserRankResponse, error) {
	if kind != entity.LeaderboardKindScore && kind != entity.LeaderboardKindStreak {
		return nil, fmt.Errorf("%w: unknown leaderboard kind %q", apperrors.ErrValidation, kind)
	}

	resp := &dto.UserRankResponse{Kind: kind, UserID: userID}

	rank, err := s.cacheRepo.ZRevRank(cacheKeyForKind(kind), strconv.FormatUint(uint64(userID), 10))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return resp, nil
		}
		return nil, fmt.Errorf("failed to get rank: %w", err)
	}

	// ZREVRANK нумерует с нуля, пользователю показываем с единицы
	displayRank := rank + 1
	resp.Rank = &displayRank
	return resp, nil
}

// RebuildAll восстанавливает оба Redis ZSET из durable-проекций.
// Идемпотентна, безопасна в любой момент; вызывается при старте сервиса
// и админским эндпоинтом.
func (s *LeaderboardService) RebuildAll() error {
	if err := s.rebuildScore(); err != nil {
		return err
	}
	return s.rebuildStreak()
}

func (s *LeaderboardService) rebuildScore() error {
	rows, err := s.leaderboardRepo.TopByScore(s.config.LeaderboardRebuildSize)
	if err != nil {
		return fmt.Errorf("failed to load score projection: %w", err)
	}
	for _, row := range rows {
		member := strconv.FormatUint(uint64(row.UserID), 10)
		if err := s.cacheRepo.ZAdd(leaderboardScoreKey, member, float64(row.TotalScore)); err != nil {
			return fmt.Errorf("failed to rebuild score leaderboard: %w", err)
		}
	}
	log.Printf("[LeaderboardService] Score-лидерборд восстановлен из БД (%d строк)", len(rows))
	return nil
}

func (s *LeaderboardService) rebuildStreak() error {
	rows, err := s.leaderboardRepo.TopByStreak(s.config.LeaderboardRebuildSize)
	if err != nil {
		return fmt.Errorf("failed to load streak projection: %w", err)
	}
	for _, row := range rows {
		member := strconv.FormatUint(uint64(row.UserID), 10)
		if err := s.cacheRepo.ZAdd(leaderboardStreakKey, member, float64(row.MaxStreak)); err != nil {
			return fmt.Errorf("failed to rebuild streak leaderboard: %w", err)
		}
	}
	log.Printf("[LeaderboardService] Streak-лидерборд восстановлен из БД (%d строк)", len(rows))
	return nil
}

// getFromCache собирает выдачу из Redis ZSET, подтягивая username из БД.
// Пустое множество трактуется как промах: иначе холодный кеш выглядел бы
// как пустой лидерборд.
func (s *LeaderboardService) getFromCache(kind string, limit int) ([]dto.LeaderboardEntry, error) {
	members, err := s.cacheRepo.ZTopN(cacheKeyForKind(kind), int64(limit))
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: cached leaderboard %s is empty", apperrors.ErrNotFound, kind)
	}

	userIDs := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m.Member, 10, 64)
		if err != nil {
			log.Printf("[LeaderboardService] Некорректный member %q в %s", m.Member, kind)
			continue
		}
		userIDs = append(userIDs, uint(id))
	}

	usernames, err := s.leaderboardRepo.GetUsernames(userIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(members))
	rank := 1
	for _, m := range members {
		id, err := strconv.ParseUint(m.Member, 10, 64)
		if err != nil {
			continue
		}
		username, ok := usernames[uint(id)]
		if !ok {
			// Пользователь удалён из БД, но ещё висит в кеше
			continue
		}
		entries = append(entries, dto.LeaderboardEntry{
			Rank:     rank,
			UserID:   uint(id),
			Username: username,
			Value:    int64(m.Score),
		})
		rank++
	}
	return entries, nil
}

func (s *LeaderboardService) getFromDB(kind string, limit int) ([]dto.LeaderboardEntry, error) {
	if kind == entity.LeaderboardKindScore {
		rows, err := s.leaderboardRepo.TopByScore(limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load score projection: %w", err)
		}
		entries := make([]dto.LeaderboardEntry, 0, len(rows))
		for i, row := range rows {
			entries = append(entries, dto.LeaderboardEntry{
				Rank:     i + 1,
				UserID:   row.UserID,
				Username: row.Username,
				Value:    row.TotalScore,
			})
		}
		return entries, nil
	}

	rows, err := s.leaderboardRepo.TopByStreak(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load streak projection: %w", err)
	}
	entries := make([]dto.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, dto.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   row.UserID,
			Username: row.Username,
			Value:    int64(row.MaxStreak),
		})
	}
	return entries, nil
}

func cacheKeyForKind(kind string) string {
	if kind == entity.LeaderboardKindStreak {
		return leaderboardStreakKey
	}
	return leaderboardScoreKey
}
