// Package apperr carries the error codes shared with the frontend. Each code maps to
// one HTTP status; messages keep the wording clients historically matched on.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeUnauthenticated      Code = "unauthenticated"
	CodeInvalidSignature     Code = "invalid_signature"
	CodeValidation           Code = "validation"
	CodeInvalidTier          Code = "invalid_tier"
	CodeRiotIDRequired       Code = "riot_id_required"
	CodeNotFound             Code = "not_found"
	CodeConflict             Code = "conflict"
	CodeMissionAlreadyActive Code = "mission_already_active"
	CodeRiotIDTaken          Code = "riot_id_taken"
	CodeMissionLimitReached  Code = "mission_limit_reached"
	CodeDailyLimitReached    Code = "daily_limit_reached"
	CodeRateLimited          Code = "rate_limited"
	CodeUpstream             Code = "upstream"
	CodeInternal             Code = "internal"
)

var statusByCode = map[Code]int{
	CodeUnauthenticated:      http.StatusUnauthorized,
	CodeInvalidSignature:     http.StatusUnauthorized,
	CodeValidation:           http.StatusBadRequest,
	CodeInvalidTier:          http.StatusBadRequest,
	CodeRiotIDRequired:       http.StatusBadRequest,
	CodeNotFound:             http.StatusNotFound,
	CodeConflict:             http.StatusConflict,
	CodeMissionAlreadyActive: http.StatusConflict,
	CodeRiotIDTaken:          http.StatusConflict,
	CodeMissionLimitReached:  http.StatusForbidden,
	CodeDailyLimitReached:    http.StatusForbidden,
	CodeRateLimited:          http.StatusTooManyRequests,
	CodeUpstream:             http.StatusBadGateway,
	CodeInternal:             http.StatusInternalServerError,
}

type Error struct {
	Code    Code
	Message string
	// seconds, only set for CodeRateLimited
	RetryAfter int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Status() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func RateLimited(retryAfter int) *Error {
	return &Error{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Valorant API rate limit reached, try again in %d seconds", retryAfter),
		RetryAfter: retryAfter,
	}
}

// As returns the *Error in err's chain, or an internal error wrapping err.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: "Internal server error", Err: err}
}

func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
