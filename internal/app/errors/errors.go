package errors

import (
	"errors"
	"net/http"
)

// Kind classifies a ResponseCodeError beyond its HTTP code so that
// services and tests can branch on the failure class.
type Kind string

const (
	KindInternal               Kind = "internal"
	KindValidation             Kind = "validation"
	KindNotFound               Kind = "not_found"
	KindOutOfStock             Kind = "out_of_stock"
	KindInsufficientFunds      Kind = "insufficient_funds"
	KindForbidden              Kind = "forbidden"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindLimitExceeded          Kind = "limit_exceeded"
)

type ResponseCodeError struct {
	err  error
	msg  string
	code int
	kind Kind
}

func New(err error, msg string) error {
	return ResponseCodeError{err: err, msg: msg, code: http.StatusInternalServerError, kind: KindInternal}
}

func NewWithCode(err error, msg string, code int) error {
	return ResponseCodeError{err: err, msg: msg, code: code, kind: KindInternal}
}

func NewValidation(msg string) error {
	return ResponseCodeError{err: errors.New(msg), msg: msg, code: http.StatusBadRequest, kind: KindValidation}
}

func NewNotFound(msg string) error {
	return ResponseCodeError{err: errors.New(msg), msg: msg, code: http.StatusNotFound, kind: KindNotFound}
}

func NewOutOfStock(msg string) error {
	return ResponseCodeError{err: errors.New(msg), msg: msg, code: http.StatusConflict, kind: KindOutOfStock}
}

func NewInsufficientFunds(msg string) error {
	return ResponseCodeError{err: errors.New(msg), msg: msg, code: http.StatusPaymentRequired, kind: KindInsufficientFunds}
}

func NewForbidden(msg string) error {
	return ResponseCodeError{err: errors.New(msg), msg: msg, code: http.StatusForbidden, kind: KindForbidden}
}

func NewInvalidStateTransition(msg string) error {
	return ResponseCodeError{err: errors.New(msg), msg: msg, code: http.StatusConflict, kind: KindInvalidStateTransition}
}

func NewLimitExceeded(msg string) error {
	return ResponseCodeError{err: errors.New(msg), msg: msg, code: http.StatusBadRequest, kind: KindLimitExceeded}
}

func (rce ResponseCodeError) Error() string {
	return rce.err.Error()
}

func (rce ResponseCodeError) Msg() string {
	return rce.msg
}

func (rce ResponseCodeError) Code() int {
	return rce.code
}

func (rce ResponseCodeError) Kind() Kind {
	return rce.kind
}

func (rce ResponseCodeError) Unwrap() error {
	return rce.err
}

// IsKind reports whether err is a ResponseCodeError of the given kind.
func IsKind(err error, kind Kind) bool {
	rce := ResponseCodeError{}
	return errors.As(err, &rce) && rce.kind == kind
}
