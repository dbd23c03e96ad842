package config

import (
	"errors"
	"fmt"

	"github.com/dshills/treemodel/internal/config/loader"
)

// Errors returned by configuration loading.
var (
	// ErrUnknownSetting indicates a key no setting is known for.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrTypeMismatch indicates a value of the wrong type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidValue indicates a value outside the allowed set.
	ErrInvalidValue = errors.New("invalid value")
)

// ParseError is a syntax error in a configuration file.
type ParseError = loader.ParseError

// ValidationError describes a rejected setting.
type ValidationError struct {
	// Path is the dotted setting path, e.g. "log.level".
	Path    string
	Message string
	Value   any
	Code    ValidationErrorCode
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Unwrap maps the error code to its sentinel.
func (e *ValidationError) Unwrap() error {
	switch e.Code {
	case ErrCodeUnknownSetting:
		return ErrUnknownSetting
	case ErrCodeTypeMismatch:
		return ErrTypeMismatch
	default:
		return ErrInvalidValue
	}
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode uint8

const (
	// ErrCodeUnknownSetting indicates an unrecognized setting path.
	ErrCodeUnknownSetting ValidationErrorCode = iota
	// ErrCodeTypeMismatch indicates the value type is wrong.
	ErrCodeTypeMismatch
	// ErrCodeOutOfRange indicates a numeric value is out of range.
	ErrCodeOutOfRange
	// ErrCodeInvalidEnum indicates the value is not in the allowed enum.
	ErrCodeInvalidEnum
	// ErrCodePatternMismatch indicates a malformed pattern.
	ErrCodePatternMismatch
)

// String returns the code name.
func (c ValidationErrorCode) String() string {
	switch c {
	case ErrCodeUnknownSetting:
		return "unknown_setting"
	case ErrCodeTypeMismatch:
		return "type_mismatch"
	case ErrCodeOutOfRange:
		return "out_of_range"
	case ErrCodeInvalidEnum:
		return "invalid_enum"
	case ErrCodePatternMismatch:
		return "pattern_mismatch"
	default:
		return "unknown"
	}
}
