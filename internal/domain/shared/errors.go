package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// ValidationError indicates malformed template or submission input.
// It is raised before anything is persisted.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// NewValidationError creates a new ValidationError
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ConversionError indicates a document conversion pipeline failure.
// Stage names the pipeline stage that failed; the pipeline stops at
// the first failing stage.
type ConversionError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("conversion failed at stage %q: %s", e.Stage, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Cause }

// NewConversionError creates a new ConversionError
func NewConversionError(stage, message string, cause error) *ConversionError {
	return &ConversionError{Stage: stage, Message: message, Cause: cause}
}

// ChannelError indicates a single distribution channel failed.
// It is isolated to that channel and never escalates.
type ChannelError struct {
	Channel string
	Message string
	Cause   error
}

func (e *ChannelError) Error() string {
	msg := fmt.Sprintf("channel %q failed: %s", e.Channel, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ChannelError) Unwrap() error { return e.Cause }

// NewChannelError creates a new ChannelError
func NewChannelError(channel, message string, cause error) *ChannelError {
	return &ChannelError{Channel: channel, Message: message, Cause: cause}
}

// PersistenceError indicates a storage I/O failure. It carries the
// collection and operation name; there is no automatic retry.
type PersistenceError struct {
	Collection string
	Op         string
	Cause      error
}

func (e *PersistenceError) Error() string {
	msg := fmt.Sprintf("persistence %s on collection %q failed", e.Op, e.Collection)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// NewPersistenceError creates a new PersistenceError
func NewPersistenceError(collection, op string, cause error) *PersistenceError {
	return &PersistenceError{Collection: collection, Op: op, Cause: cause}
}

// MigrationError indicates a legacy migration failure. It blocks
// deletion of the legacy blob but does not block normal operation.
type MigrationError struct {
	LegacyKey string
	Message   string
	Cause     error
}

func (e *MigrationError) Error() string {
	msg := fmt.Sprintf("migration of legacy key %q failed: %s", e.LegacyKey, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *MigrationError) Unwrap() error { return e.Cause }

// NewMigrationError creates a new MigrationError
func NewMigrationError(legacyKey, message string, cause error) *MigrationError {
	return &MigrationError{LegacyKey: legacyKey, Message: message, Cause: cause}
}
