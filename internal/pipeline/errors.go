package pipeline

import (
	"errors"
	"fmt"
)

// ErrUnknownStage indicates a chain referenced a stage name that is not
// registered.
var ErrUnknownStage = errors.New("unknown stage")

// ConfigError reports an invalid pipeline definition (unknown stage name or
// bad option). It is detected while parsing the chain, before any stage
// executes.
type ConfigError struct {
	Stage string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("pipeline configuration: stage %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("pipeline configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StageError reports a failed transformer or consumer stage. It aborts the
// remaining pipeline and carries the index of the failing stage.
type StageError struct {
	Index int
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Index+1, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a pipeline configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
