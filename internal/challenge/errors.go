package challenge

import "fmt"

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// GenerationFailure reports that the backend call for one attempt failed,
// timed out or returned an unusable payload.
type GenerationFailure struct {
	Attempt int
	Err     error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed on attempt %d: %v", e.Attempt, e.Err)
}

func (e *GenerationFailure) Unwrap() error { return e.Err }

// UniquenessExhausted reports that every attempt produced a near-duplicate.
// LastAttempt carries the last rejected candidate for diagnostics; it is
// never persisted.
type UniquenessExhausted struct {
	Attempts    int
	LastAttempt string
}

func (e *UniquenessExhausted) Error() string {
	return fmt.Sprintf("no unique question after %d attempts", e.Attempts)
}

// PersistenceFailure reports a failed history fetch or write.
// Op is "fetch" or "save".
type PersistenceFailure struct {
	Op  string
	Err error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }

// ConfigurationError reports that the backend credential is unavailable.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return "configuration error"
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
