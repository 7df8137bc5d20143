package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния.
	// Главный случай — несовпадение state_version при отправке ответа (optimistic lock):
	// клиент обязан заново запросить вопрос перед повторной попыткой.
	ErrConflict = errors.New("resource state conflict")

	// ErrNoActiveQuestion используется, когда пользователь отправляет ответ,
	// не запросив перед этим следующий вопрос (нет активной сессии).
	ErrNoActiveQuestion = errors.New("no active question")
)
