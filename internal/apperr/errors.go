package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind классифицирует ошибку приложения
type Kind string

const (
	KindValidation          Kind = "validation"
	KindUnauthenticated     Kind = "unauthenticated"
	KindPermissionDenied    Kind = "permission_denied"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindGenerationExhausted Kind = "generation_exhausted"
	KindBackendUnavailable  Kind = "backend_unavailable"
	KindInternal            Kind = "internal"
)

// Error ошибка приложения: вид, сообщение для пользователя и исходная причина
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает только вид ошибки, поэтому errors.Is(err, ErrNotFound) работает для любой NotFound
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap возвращает копию с причиной
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func PermissionDenied(message string) *Error {
	return New(KindPermissionDenied, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Backend оборачивает сбой внешней зависимости (БД, хранилище, Redis)
func Backend(err error) *Error {
	return ErrBackendUnavailable.Wrap(err)
}

// KindOf возвращает вид ошибки; неизвестные ошибки считаются внутренними
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf возвращает сообщение для пользователя
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternal.Message
}

// HTTPStatus сопоставляет вид ошибки с HTTP-статусом
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGenerationExhausted, KindBackendUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable сообщает, имеет ли смысл повторить операцию
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConflict, KindGenerationExhausted, KindBackendUnavailable:
		return true
	}
	return false
}

var (
	ErrValidation          = New(KindValidation, "invalid input")
	ErrUnauthenticated     = New(KindUnauthenticated, "authentication required")
	ErrPermissionDenied    = New(KindPermissionDenied, "permission denied")
	ErrNotFound            = New(KindNotFound, "not found")
	ErrConflict            = New(KindConflict, "already exists")
	ErrGenerationExhausted = New(KindGenerationExhausted, "could not generate a unique code, try again")
	ErrBackendUnavailable  = New(KindBackendUnavailable, "service temporarily unavailable, try again")
	ErrInternal            = New(KindInternal, "internal server error")
)
