package indicator

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfiguration matches every *ConfigurationError with errors.Is.
	ErrConfiguration = errors.New("configuration error")
	// ErrData matches every *DataError with errors.Is.
	ErrData = errors.New("data error")
)

// ConfigurationError is returned when an indicator or an engine is built with invalid
// parameters. It is never returned while bars are processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configError(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DataError rejects an input bar or value. The engine state is left untouched, so the
// caller may fix the bar and feed it again.
type DataError struct {
	Symbol string
	Time   time.Time
	Index  int
	Reason string
}

func (e *DataError) Error() string {
	if e.Symbol == "" && e.Time.IsZero() {
		return fmt.Sprintf("data error at index %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("data error: %s at %s: %s", e.Symbol, e.Time.Format(time.RFC3339), e.Reason)
}

func (e *DataError) Is(target error) bool {
	return target == ErrData
}
