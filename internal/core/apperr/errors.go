// Package apperr is the error taxonomy shared by services and the HTTP layer.
// Every failure carries a stable Kind plus a message that is safe to show clients;
// the wrapped cause is for server-side logs only.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindStorage        Kind = "storage"
	KindUnavailable    Kind = "unavailable"
)

type Error struct {
	Kind   Kind
	Msg    string
	Err    error
	Status int // 非零时覆盖默认状态码（认证失败区分 401/403）
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// 供 errors.Is 使用的哨兵
var (
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrAuthorization  = &Error{Kind: KindAuthorization}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrStorage        = &Error{Kind: KindStorage}
	ErrUnavailable    = &Error{Kind: KindUnavailable}
)

// MissingCredential 未携带令牌 → 401
func MissingCredential(msg string) error {
	return &Error{Kind: KindAuthentication, Msg: msg, Status: http.StatusUnauthorized}
}

// InvalidCredential 令牌无效/过期 → 403
func InvalidCredential(msg string) error {
	return &Error{Kind: KindAuthentication, Msg: msg, Status: http.StatusForbidden}
}

// Unauthenticated 登录失败 → 401
func Unauthenticated(msg string) error {
	return &Error{Kind: KindAuthentication, Msg: msg, Status: http.StatusUnauthorized}
}

func Forbidden(msg string) error { return &Error{Kind: KindAuthorization, Msg: msg} }
func BadRequest(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }
func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

// Storage hides the cause behind a generic message.
func Storage(err error) error {
	return &Error{Kind: KindStorage, Msg: "Internal server error", Err: err}
}

func Unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
}

// From 将任意错误归一化；未知错误一律视作存储错误
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Storage(err).(*Error)
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return From(err).Kind
}

// HTTPStatus 错误到状态码的唯一映射点
func HTTPStatus(err error) int {
	e := From(err)
	if e == nil {
		return http.StatusOK
	}
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
