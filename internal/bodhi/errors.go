package bodhi

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Use errors.Is to classify any error returned by this
// package.
var (
	// ErrConfiguration marks a malformed Config or Orchestrator.
	ErrConfiguration = errors.New("bodhi: configuration error")

	// ErrInvalidArgument marks an empty or non-text prompt. No generation
	// was attempted.
	ErrInvalidArgument = errors.New("bodhi: invalid argument")

	// ErrGeneration marks a failed ChatFunction invocation.
	ErrGeneration = errors.New("bodhi: generation failed")
)

// ConfigError describes a construction-time contract violation.
type ConfigError struct {
	// Field names the offending setting, e.g. "response_template".
	Field string
	// Missing lists the placeholders a template lacks.
	Missing []string
	// Reason is set for violations other than missing placeholders.
	Reason string
	// Err is the underlying template check failure, if any.
	Err error
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("bodhi: %s is missing placeholder %s", e.Field, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("bodhi: invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) true.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// GenerationError reports which pass failed. The cause is preserved for
// errors.Is and errors.As.
type GenerationError struct {
	// Pass is 1 for the analysis pass (and single-pass mode), 2 for the
	// response pass.
	Pass int
	// Analysis holds the Pass 1 text when Pass 2 failed, so callers can
	// inspect it. It is empty for Pass 1 failures.
	Analysis string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("bodhi: pass %d generation failed: %v", e.Pass, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrGeneration) true.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
