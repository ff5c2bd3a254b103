package services

import (
	"errors"
	"fmt"

	"paper-hub/storage"
)

// ErrPaperNotFound meldet eine unbekannte Paper-ID.
var ErrPaperNotFound = errors.New("paper not found")

// ValidationError meldet eine Mutation, die nicht auf die Bibliothek passt.
// Sie wird nie wiederholt.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := "invalid mutation"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// FailureKind ordnet einen fehlgeschlagenen Sync ein.
type FailureKind int

const (
	FailureValidation FailureKind = iota + 1
	FailureConflict
	FailureStore
)

func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureConflict:
		return "conflict"
	case FailureStore:
		return "store"
	default:
		return "unknown"
	}
}

// SyncError ist das Ergebnis eines gescheiterten Syncs. Der lokale Zustand bleibt unverändert.
type SyncError struct {
	Kind     FailureKind
	Mutation MutationKind
	Attempts int
	Err      error
}

func (e *SyncError) Error() string {
	switch e.Kind {
	case FailureConflict:
		return fmt.Sprintf("%s: document changed concurrently, gave up after %d attempts: %v", e.Mutation, e.Attempts, e.Err)
	default:
		return fmt.Sprintf("%s failed (%s, attempt %d): %v", e.Mutation, e.Kind, e.Attempts, e.Err)
	}
}

func (e *SyncError) Unwrap() error { return e.Err }

// KindOf liefert die Fehlerklasse eines Sync-Fehlers, 0 für andere Fehler.
func KindOf(err error) FailureKind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return FailureValidation
	}
	if storage.IsConflict(err) {
		return FailureConflict
	}
	var ste *storage.StoreError
	if errors.As(err, &ste) {
		return FailureStore
	}
	return 0
}
