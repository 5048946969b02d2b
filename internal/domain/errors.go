package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingImage        = errors.New("missing image")
	ErrEmptyPrompt         = errors.New("empty prompt")
	ErrInvalidSetting      = errors.New("invalid setting")
	ErrInvalidImage        = errors.New("invalid image")
	ErrImageTooLarge       = errors.New("image too large")
	ErrNotReady            = errors.New("not ready")
	ErrAlreadyRunning      = errors.New("already running")
	ErrPipelineUnavailable = errors.New("pipeline unavailable")
	ErrPipelineRejected    = errors.New("pipeline rejected")
)

// InvalidSettingError reports the field whose value was refused. It matches
// ErrInvalidSetting under errors.Is.
type InvalidSettingError struct {
	Field Field
	Value any
}

func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid setting %s: %v", e.Field, e.Value)
}

func (e *InvalidSettingError) Is(target error) bool {
	return target == ErrInvalidSetting
}

func invalidSetting(field Field, value any) error {
	return &InvalidSettingError{Field: field, Value: value}
}
