package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind 错误分类：冲突、非法关系、未找到、越权、超时
type Kind int

const (
	KindInternal Kind = iota
	KindConflict
	KindInvalidRelation
	KindNotFound
	KindCounterUnderflow
	KindUnauthorized
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindInvalidRelation:
		return "invalid_relation"
	case KindNotFound:
		return "not_found"
	case KindCounterUnderflow:
		return "counter_underflow"
	case KindUnauthorized:
		return "unauthorized"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Error 带分类的应用错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Wrap(kind Kind, msg string, err error) *Error { return &Error{Kind: kind, Msg: msg, Err: err} }

func Conflict(msg string) *Error        { return New(KindConflict, msg) }
func InvalidRelation(msg string) *Error { return New(KindInvalidRelation, msg) }
func NotFound(msg string) *Error        { return New(KindNotFound, msg) }
func Unauthorized(msg string) *Error    { return New(KindUnauthorized, msg) }

// Timeout 超时包装；调用方应视为结果未知而非确定失败
func Timeout(msg string, err error) *Error { return Wrap(KindTimeout, msg, err) }

// KindOf 提取错误分类；存储超时视为结果未知（Timeout），其余按 internal 处理
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// Is 判断错误是否属于给定分类
func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }
