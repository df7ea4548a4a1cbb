package util

import (
	"errors"
	"fmt"
)

// ErrorKind 业务错误分类，控制器据此映射HTTP状态码。
// “尚未完成/尚未达标”不是错误，属于正常返回值，不在此列。
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindForbidden
	KindInvalidState
	KindValidation
	KindConflict // 乐观锁重试耗尽
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NotFoundErr(what string) *AppError {
	return &AppError{Kind: KindNotFound, Message: what + " not found"}
}

func ForbiddenErr(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func InvalidStateErr(msg string) *AppError {
	return &AppError{Kind: KindInvalidState, Message: msg}
}

func ValidationErr(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

func ConflictErr(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

// KindOf 解包取出业务错误分类，非业务错误一律视为内部错误
func KindOf(err error) ErrorKind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

var (
	ErrAlreadyEnrolled    = InvalidStateErr("already enrolled in this course")
	ErrCourseNotPublished = InvalidStateErr("course is not published")
	ErrAttemptsExceeded   = InvalidStateErr("quiz attempts exceeded")
	ErrEnrollmentExpired  = InvalidStateErr("enrollment has expired")
	ErrNegativeTimeSpent  = ValidationErr("timeSpentDelta must not be negative")
)
