package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paper-hub/models"
)

// Version ist das undurchsichtige Versionstoken eines gespeicherten Dokuments.
type Version string

// NoVersion bedeutet: es existiert noch kein Dokument.
const NoVersion Version = ""

// Snapshot ist ein gelesener Stand des Dokuments samt Token.
type Snapshot struct {
	Library models.Library
	Version Version
}

// DocumentStore liest und schreibt das Bibliotheksdokument mit bedingtem Schreiben.
//
// Write mit NoVersion legt das Dokument an und schlägt mit einem
// Versionskonflikt fehl, falls es schon existiert. Sonst wird nur
// geschrieben, wenn die gespeicherte Version noch expected entspricht.
type DocumentStore interface {
	Name() string
	Fetch(ctx context.Context) (*Snapshot, error)
	Write(ctx context.Context, lib models.Library, expected Version, message string) (Version, error)
}

// Locator wird von Backends implementiert, die gehostete Dateien adressieren können.
type Locator interface {
	FileURL(path string) string
}

var (
	// ErrNotFound meldet, dass noch kein Dokument gespeichert wurde.
	ErrNotFound = errors.New("document not found")
	// ErrVersionConflict meldet, dass das Token veraltet war.
	ErrVersionConflict = errors.New("version conflict")
)

// ConflictError beschreibt einen abgelehnten bedingten Schreibvorgang.
type ConflictError struct {
	Backend  string
	Expected Version
	Detail   string
}

func (e *ConflictError) Error() string {
	exp := string(e.Expected)
	if exp == "" {
		exp = "<none>"
	}
	msg := fmt.Sprintf("%s: version conflict (expected %s)", e.Backend, exp)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is macht ConflictError mit errors.Is(err, ErrVersionConflict) vergleichbar.
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// StoreError fasst Transport-, Auth- und Formatfehler eines Backends zusammen.
type StoreError struct {
	Backend    string
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Backend, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsConflict meldet, ob err ein Versionskonflikt ist.
func IsConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// withTimeout begrenzt einen einzelnen Roundtrip.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
