package errors

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку конвейера распознавания.
type Kind string

const (
	KindDecode           Kind = "decode"
	KindConfig           Kind = "config"
	KindMethodNotAllowed Kind = "method_not_allowed"
	KindBadRequest       Kind = "bad_request"
	KindTransport        Kind = "transport"
	KindEmptyResponse    Kind = "empty_response"
	KindSchema           Kind = "schema_violation"
	KindBusy             Kind = "busy"
	KindUnknown          Kind = "unknown"
)

// Error типизированная ошибка: вид, операция, сообщение и причина.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap оборачивает err. Если в цепочке уже есть *Error, возвращается он:
// вид, присвоенный на нижнем уровне, не теряется. Для nil возвращает nil.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// IsKind проверяет, что первая типизированная ошибка в цепочке имеет вид kind.
// Для нетипизированных ошибок и nil всегда false.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if !errors.As(err, &target) {
		return false
	}
	return target.Kind == kind
}

// KindOf возвращает вид ошибки или KindUnknown для нетипизированных ошибок.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindUnknown
}
