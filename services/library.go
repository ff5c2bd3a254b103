package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"paper-hub/models"
	"paper-hub/providers"
	"paper-hub/providers/arxiv"
	"paper-hub/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotConnected wird geliefert, solange Connect nicht erfolgreich war.
var ErrNotConnected = errors.New("library session not connected")

// LibraryState ist der zuletzt bestätigte Stand. Er wird immer komplett ersetzt.
type LibraryState struct {
	Papers   models.Library  `json:"papers" yaml:"papers"`
	Version  storage.Version `json:"version" yaml:"version"`
	LoadedAt time.Time       `json:"loaded_at" yaml:"loaded_at"`
}

// PaperInput sind die Nutzereingaben für ein neues Paper.
type PaperInput struct {
	Title      string            `json:"title"`
	SourceKind models.SourceKind `json:"type"`
	// ArXiv-ID oder abs/pdf-URL
	ExternalRef string   `json:"arxiv"`
	HostedPath  string   `json:"path"`
	Tags        []string `json:"tags"`
}

// CommentInput sind die Nutzereingaben für einen Kommentar.
type CommentInput struct {
	Text    string `json:"text"`
	PageRef string `json:"page"`
	Quote   string `json:"quote"`
}

// LibraryService hält die Sitzung: Identität, bestätigten Stand und den Sync.
type LibraryService struct {
	Sync      *SyncService
	Identity  providers.IdentityProvider
	Retrieval *RetrievalRegistry
	Logger    *zap.Logger

	Now   func() time.Time
	NewID func() string

	mu    sync.RWMutex
	state LibraryState
	seq   uint64
	user  *models.User
}

// NewLibraryService erstellt eine Sitzung über den Store des SyncService.
func NewLibraryService(syncer *SyncService, identity providers.IdentityProvider, logger *zap.Logger) *LibraryService {
	return &LibraryService{
		Sync:      syncer,
		Identity:  identity,
		Retrieval: NewRetrievalRegistry(syncer.Store),
		Logger:    logger,
		Now:       func() time.Time { return time.Now().UTC() },
		NewID:     uuid.NewString,
		state:     LibraryState{Papers: models.Library{}},
	}
}

// Connect löst die Identität auf, prüft das Repository und lädt den Stand.
func (s *LibraryService) Connect(ctx context.Context) error {
	user, err := s.Identity.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("resolve identity via %s: %w", s.Identity.Name(), err)
	}
	if v, ok := s.Identity.(providers.RepositoryVerifier); ok {
		if err := v.VerifyRepository(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.Logger.Info("session connected",
		zap.String("user", user.Login),
		zap.String("identity", s.Identity.Name()),
		zap.String("store", s.Sync.Store.Name()))
	return s.Refresh(ctx)
}

// Refresh liest den Stand neu und ersetzt den lokalen Zustand.
func (s *LibraryService) Refresh(ctx context.Context) error {
	res, err := s.Sync.Load(ctx)
	if err != nil {
		return fmt.Errorf("refresh library: %w", err)
	}
	s.replace(res)
	return nil
}

// State liefert den zuletzt bestätigten Stand.
func (s *LibraryService) State() LibraryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User liefert die Identität der Sitzung oder nil.
func (s *LibraryService) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Paper sucht ein Paper im bestätigten Stand.
func (s *LibraryService) Paper(id string) (models.Paper, bool) {
	st := s.State()
	idx := st.Papers.Find(id)
	if idx < 0 {
		return models.Paper{}, false
	}
	return st.Papers[idx], true
}

// RequestMutation synchronisiert m. Bei Erfolg wird der Stand ersetzt,
// bei Fehlern bleibt er unverändert.
func (s *LibraryService) RequestMutation(ctx context.Context, m Mutation) (LibraryState, error) {
	user := s.User()
	if user == nil {
		return LibraryState{}, ErrNotConnected
	}
	res, err := s.Sync.Sync(ctx, m, user.Login)
	if err != nil {
		return s.State(), err
	}
	return s.replace(res), nil
}

// AddPaper legt ein Paper mit frischer ID und Autorenangaben an.
func (s *LibraryService) AddPaper(ctx context.Context, in PaperInput) (models.Paper, error) {
	user := s.User()
	if user == nil {
		return models.Paper{}, ErrNotConnected
	}

	p := models.Paper{
		ID:         s.NewID(),
		Title:      CleanLine(in.Title),
		SourceKind: in.SourceKind,
		AddedBy:    user.Login,
		AddedAt:    s.Now(),
		Tags:       NormalizeTags(in.Tags),
		Comments:   []models.Comment{},
	}
	if p.SourceKind == "" {
		if in.HostedPath != "" && in.ExternalRef == "" {
			p.SourceKind = models.SourceHosted
		} else {
			p.SourceKind = models.SourceExternal
		}
	}

	switch p.SourceKind {
	case models.SourceExternal:
		id, err := arxiv.NormalizeID(in.ExternalRef)
		if err != nil {
			return models.Paper{}, &ValidationError{Field: "arxiv", Err: err}
		}
		p.ExternalID = id
		if p.Title == "" {
			p.Title = "arXiv:" + id
		}
	case models.SourceHosted:
		hosted := path.Clean("/" + in.HostedPath)[1:]
		if in.HostedPath == "" || hosted == "" {
			return models.Paper{}, invalid("path", "must not be empty")
		}
		p.HostedPath = hosted
		if p.Title == "" {
			p.Title = path.Base(hosted)
		}
	default:
		return models.Paper{}, invalid("type", fmt.Sprintf("unknown source kind %q", p.SourceKind))
	}

	if _, err := s.RequestMutation(ctx, AddPaper{Paper: p}); err != nil {
		return models.Paper{}, err
	}
	return p, nil
}

// DeletePaper entfernt ein Paper.
func (s *LibraryService) DeletePaper(ctx context.Context, id string) (LibraryState, error) {
	return s.RequestMutation(ctx, DeletePaper{PaperID: id})
}

// AddComment hängt einen Kommentar der Sitzungsidentität an.
func (s *LibraryService) AddComment(ctx context.Context, paperID string, in CommentInput) (models.Comment, error) {
	user := s.User()
	if user == nil {
		return models.Comment{}, ErrNotConnected
	}

	c := models.Comment{
		ID:           s.NewID(),
		Text:         CleanText(in.Text),
		PageRef:      CleanLine(in.PageRef),
		Quote:        CleanText(in.Quote),
		Author:       user.Login,
		AuthorAvatar: user.AvatarURL,
		Timestamp:    s.Now(),
	}
	if c.Text == "" {
		return models.Comment{}, invalid("text", "must not be empty")
	}

	if _, err := s.RequestMutation(ctx, AddComment{PaperID: paperID, Comment: c}); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// Locate löst den Volltext-Ort eines Papers auf.
func (s *LibraryService) Locate(id string) (*SourceLocation, error) {
	p, ok := s.Paper(id)
	if !ok {
		return nil, &ValidationError{Field: "paper_id", Reason: id, Err: ErrPaperNotFound}
	}
	return s.Retrieval.Locate(p)
}

// References liefert die Literaturliste des bestätigten Stands.
func (s *LibraryService) References() []string {
	return BuildBibliography(s.State().Papers)
}

// replace übernimmt ein Ergebnis nur, wenn es neuer ist als der aktuelle Stand.
func (s *LibraryService) replace(res *SyncResult) LibraryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Seq > s.seq {
		s.seq = res.Seq
		s.state = LibraryState{
			Papers:   res.Library,
			Version:  res.Version,
			LoadedAt: s.Now(),
		}
	}
	return s.state
}
