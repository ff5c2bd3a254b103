package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"paper-hub/models"
	"paper-hub/storage"

	"go.uber.org/zap"
)

// DefaultMaxAttempts ist die Anzahl der Versuche bei Versionskonflikten.
const DefaultMaxAttempts = 3

// SyncResult ist der bestätigte Stand nach einem erfolgreichen Sync.
// Seq wächst mit jedem Vorgang dieses Services und ordnet Ergebnisse.
type SyncResult struct {
	Library  models.Library
	Version  storage.Version
	Attempts int
	Seq      uint64
}

// SyncService führt Lesen, Anwenden, bedingtes Schreiben und Wiederholen aus.
// Pro Instanz läuft höchstens ein Vorgang, weitere warten.
type SyncService struct {
	Store        storage.DocumentStore
	Logger       *zap.Logger
	MaxAttempts  int
	RetryBackoff time.Duration
	CommitPrefix string

	once sync.Once
	gate chan struct{}
	seq  uint64
}

// NewSyncService erstellt einen neuen SyncService.
func NewSyncService(store storage.DocumentStore, logger *zap.Logger, maxAttempts int, backoff time.Duration, prefix string) *SyncService {
	return &SyncService{
		Store:        store,
		Logger:       logger,
		MaxAttempts:  maxAttempts,
		RetryBackoff: backoff,
		CommitPrefix: prefix,
	}
}

// CommitMessage baut die Commit-Nachricht, z.B. "paper-hub: ADD_PAPER by alice".
func (s *SyncService) CommitMessage(kind MutationKind, author string) string {
	prefix := s.CommitPrefix
	if prefix == "" {
		prefix = "paper-hub"
	}
	return fmt.Sprintf("%s: %s by %s", prefix, kind, author)
}

// Load liest den aktuellen Stand. Ein fehlendes Dokument ergibt eine leere Bibliothek.
func (s *SyncService) Load(ctx context.Context) (*SyncResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	snap, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.seq++
	return &SyncResult{Library: snap.Library, Version: snap.Version, Attempts: 1, Seq: s.seq}, nil
}

// Sync wendet m auf den frisch gelesenen Stand an und schreibt bedingt zurück.
// Bei Versionskonflikten wird bis zu MaxAttempts-mal neu gelesen.
func (s *SyncService) Sync(ctx context.Context, m Mutation, author string) (*SyncResult, error) {
	if m == nil {
		return nil, &SyncError{Kind: FailureValidation, Err: invalid("mutation", "missing")}
	}
	kind := m.Kind()
	if err := s.acquire(ctx); err != nil {
		return nil, &SyncError{Kind: FailureStore, Mutation: kind, Err: err}
	}
	defer s.release()

	start := time.Now()
	log := s.Logger.With(zap.String("mutation", string(kind)), zap.String("author", author))
	message := s.CommitMessage(kind, author)

	res, err := s.run(ctx, log, m, message)
	syncDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		var se *SyncError
		errors.As(err, &se)
		se.Mutation = kind
		outcome = se.Kind.String()
		log.Warn("sync failed",
			zap.String("failure", outcome),
			zap.Int("attempts", se.Attempts),
			zap.Error(se.Err))
	} else {
		log.Info("sync committed",
			zap.Int("attempts", res.Attempts),
			zap.String("version", string(res.Version)),
			zap.Int("papers", len(res.Library)))
	}
	syncTotal.WithLabelValues(string(kind), outcome).Inc()
	return res, err
}

func (s *SyncService) run(ctx context.Context, log *zap.Logger, m Mutation, message string) (*SyncResult, error) {
	maxAttempts := s.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastConflict error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.pause(ctx, attempt); err != nil {
				return nil, &SyncError{Kind: FailureStore, Attempts: attempt - 1, Err: err}
			}
		}

		snap, err := s.fetch(ctx)
		if err != nil {
			return nil, &SyncError{Kind: FailureStore, Attempts: attempt, Err: err}
		}

		next, err := Apply(snap.Library, m)
		if err != nil {
			return nil, &SyncError{Kind: FailureValidation, Attempts: attempt, Err: err}
		}

		version, err := s.Store.Write(ctx, next, snap.Version, message)
		if err == nil {
			s.seq++
			return &SyncResult{Library: next, Version: version, Attempts: attempt, Seq: s.seq}, nil
		}
		if !storage.IsConflict(err) {
			return nil, &SyncError{Kind: FailureStore, Attempts: attempt, Err: err}
		}

		lastConflict = err
		syncConflicts.WithLabelValues(string(m.Kind())).Inc()
		log.Debug("version conflict, retrying",
			zap.Int("attempt", attempt),
			zap.String("expected", string(snap.Version)))
	}
	return nil, &SyncError{Kind: FailureConflict, Attempts: maxAttempts, Err: lastConflict}
}

func (s *SyncService) fetch(ctx context.Context) (*storage.Snapshot, error) {
	snap, err := s.Store.Fetch(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return &storage.Snapshot{Library: models.Library{}, Version: storage.NoVersion}, nil
	}
	return snap, err
}

// pause wartet vor einem erneuten Versuch, linear steigend mit Jitter.
func (s *SyncService) pause(ctx context.Context, attempt int) error {
	if s.RetryBackoff <= 0 {
		return ctx.Err()
	}
	d := s.RetryBackoff*time.Duration(attempt-1) + time.Duration(rand.Int63n(int64(s.RetryBackoff/2 + 1)))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SyncService) acquire(ctx context.Context) error {
	s.once.Do(func() { s.gate = make(chan struct{}, 1) })
	select {
	case s.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SyncService) release() { <-s.gate }
