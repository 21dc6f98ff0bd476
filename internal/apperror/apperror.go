package apperror

import (
	"errors"
	"fmt"
)

// Kind категория доменной ошибки. Транспорт сопоставляет её со статусом ответа.
type Kind string

const (
	KindConflict     Kind = "CONFLICT"
	KindInvalidState Kind = "INVALID_STATE"
	KindValidation   Kind = "VALIDATION"
	KindImmutable    Kind = "IMMUTABLE_STATE"
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
)

// Error доменная ошибка с достаточной структурой, чтобы клиент мог показать
// конкретное сообщение.
type Error struct {
	// Kind категория ошибки.
	Kind Kind

	// Rule имя нарушенного правила, например "future_date_requires_leave".
	Rule string

	// Message человекочитаемое описание.
	Message string

	// Details дополнительный контекст (id сессии, дата и т.п.).
	Details map[string]string
}

func (e *Error) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (rule=%s)", e.Kind, e.Message, e.Rule)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// With возвращает копию ошибки с добавленной деталью.
func (e *Error) With(key, value string) *Error {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value

	out := *e
	out.Details = details
	return &out
}

func newError(kind Kind, rule, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	}
}

func Conflict(rule, format string, args ...interface{}) *Error {
	return newError(KindConflict, rule, format, args...)
}

func InvalidState(rule, format string, args ...interface{}) *Error {
	return newError(KindInvalidState, rule, format, args...)
}

func Validation(rule, format string, args ...interface{}) *Error {
	return newError(KindValidation, rule, format, args...)
}

func Immutable(rule, format string, args ...interface{}) *Error {
	return newError(KindImmutable, rule, format, args...)
}

func NotFound(rule, format string, args ...interface{}) *Error {
	return newError(KindNotFound, rule, format, args...)
}

func Forbidden(rule, format string, args ...interface{}) *Error {
	return newError(KindForbidden, rule, format, args...)
}

// KindOf возвращает категорию ошибки или пустую строку для инфраструктурных ошибок.
// Использует errors.As, поэтому работает и с обёрнутыми ошибками.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As извлекает *Error из цепочки.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsImmutable(err error) bool    { return KindOf(err) == KindImmutable }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsForbidden(err error) bool    { return KindOf(err) == KindForbidden }
