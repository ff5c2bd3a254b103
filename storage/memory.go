package storage

import (
	"context"
	"strconv"
	"sync"

	"paper-hub/models"
)

// MemoryStore hält das Dokument im Prozess. Wird für den Demo-Modus und Tests genutzt.
type MemoryStore struct {
	mu       sync.Mutex
	data     []byte
	seq      int64
	exists   bool
	messages []string
}

// NewMemoryStore legt einen leeren Store an. Mit seed != nil existiert das Dokument sofort.
func NewMemoryStore(seed models.Library) (*MemoryStore, error) {
	s := &MemoryStore{}
	if seed != nil {
		data, err := Encode(seed)
		if err != nil {
			return nil, err
		}
		s.data = data
		s.seq = 1
		s.exists = true
	}
	return s, nil
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Backend: s.Name(), Op: "fetch", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return nil, ErrNotFound
	}
	lib, err := Decode(s.data)
	if err != nil {
		return nil, &StoreError{Backend: s.Name(), Op: "fetch", Err: err}
	}
	return &Snapshot{Library: lib, Version: s.version()}, nil
}

func (s *MemoryStore) Write(ctx context.Context, lib models.Library, expected Version, message string) (Version, error) {
	if err := ctx.Err(); err != nil {
		return NoVersion, &StoreError{Backend: s.Name(), Op: "write", Err: err}
	}
	data, err := Encode(lib)
	if err != nil {
		return NoVersion, &StoreError{Backend: s.Name(), Op: "write", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := NoVersion
	if s.exists {
		current = s.version()
	}
	if expected != current {
		return NoVersion, &ConflictError{Backend: s.Name(), Expected: expected}
	}

	s.data = data
	s.seq++
	s.exists = true
	s.messages = append(s.messages, message)
	return s.version(), nil
}

// Messages liefert die Commit-Nachrichten aller erfolgreichen Schreibvorgänge.
func (s *MemoryStore) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func (s *MemoryStore) version() Version {
	return Version(strconv.FormatInt(s.seq, 10))
}
