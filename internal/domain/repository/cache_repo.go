package repository

import (
	"time"
)

// ZMember — элемент сортированного множества (member + score)
type ZMember struct {
	Member string
	Score  float64
}

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Increment(key string) (int64, error)
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	Exists(key string) (bool, error)

	// SetNX устанавливает значение ключа, только если ключ не существует.
	// Возвращает true, если ключ был установлен, false — если ключ уже существовал.
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)

	// ZAdd добавляет/обновляет member со score в сортированном множестве
	ZAdd(set string, member string, score float64) error

	// ZTopN возвращает первые n элементов множества по убыванию score
	ZTopN(set string, n int64) ([]ZMember, error)

	// ZRevRank возвращает позицию member по убыванию score (0-indexed).
	// apperrors.ErrNotFound, если member отсутствует.
	ZRevRank(set string, member string) (int64, error)
}
