package service

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/yourusername/brainbolt-api/internal/domain/repository"
	apperrors "github.com/yourusername/brainbolt-api/internal/pkg/errors"
)

const idempotencyKeyPrefix = "idempotency:"

// IdempotencyGuard хранит результаты обработанных ответов по ключу идемпотентности.
// Недоступность кеша не блокирует обработку: повтор в этом случае отсекает
// уникальный индекс по ключу в журнале ответов.
type IdempotencyGuard struct {
	cacheRepo repository.CacheRepository
	ttl       time.Duration
}

// NewIdempotencyGuard создает новый guard с заданным временем жизни записей
func NewIdempotencyGuard(cacheRepo repository.CacheRepository, ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		cacheRepo: cacheRepo,
		ttl:       ttl,
	}
}

// Lookup возвращает сохраненный результат для ключа, если он есть.
// Ошибки кеша трактуются как промах.
func (g *IdempotencyGuard) Lookup(key string, dest interface{}) bool {
	raw, err := g.cacheRepo.Get(idempotencyKeyPrefix + key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[IdempotencyGuard] Ошибка чтения ключа %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		log.Printf("[IdempotencyGuard] Поврежденная запись для ключа %s: %v", key, err)
		return false
	}
	return true
}

// Store сохраняет результат обработки под ключом идемпотентности.
// SetNX не перезаписывает результат, записанный конкурентным запросом.
func (g *IdempotencyGuard) Store(key string, result interface{}) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("[IdempotencyGuard] Ошибка сериализации результата для ключа %s: %v", key, err)
		return
	}
	if _, err := g.cacheRepo.SetNX(idempotencyKeyPrefix+key, string(data), g.ttl); err != nil {
		log.Printf("[IdempotencyGuard] Ошибка записи ключа %s: %v", key, err)
	}
}
