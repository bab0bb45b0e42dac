package ssml

import (
	"errors"
	"fmt"
)

// ErrMissingText 编译时缺少文本，属于调用方的编程错误
var ErrMissingText = errors.New("ssml: text is required")

// ValidationError 字段级校验错误，记录字段名与原始输入
type ValidationError struct {
	Field   string
	Input   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Input == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, formatInput(e.Input), e.Message)
}

func formatInput(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

func newValidationError(field string, input any, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Input:   input,
		Message: fmt.Sprintf(format, args...),
	}
}

// SerializationError 写入内存缓冲区时的意外失败
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return "ssml: serialization failed: " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
