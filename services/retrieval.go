package services

import (
	"errors"
	"fmt"

	"paper-hub/models"
	"paper-hub/providers/arxiv"
	"paper-hub/storage"
)

// ErrNoRetrieval meldet eine Quellart ohne registrierte Strategie.
var ErrNoRetrieval = errors.New("no retrieval strategy for source kind")

// SourceLocation beschreibt, wo der Volltext eines Papers liegt.
type SourceLocation struct {
	Kind      models.SourceKind `json:"kind" yaml:"kind"`
	URL       string            `json:"url" yaml:"url"`
	PDFURL    string            `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
	ReaderURL string            `json:"reader_url,omitempty" yaml:"reader_url,omitempty"`
}

// RetrievalStrategy löst den Volltext-Ort einer Quellart auf.
type RetrievalStrategy interface {
	Locate(p models.Paper) (*SourceLocation, error)
}

// RetrievalRegistry wählt die Strategie über die Quellart, nicht über die Form des Pfads.
type RetrievalRegistry struct {
	strategies map[models.SourceKind]RetrievalStrategy
}

// NewRetrievalRegistry registriert arXiv immer und gehostete Dateien, wenn der Store sie adressieren kann.
func NewRetrievalRegistry(store storage.DocumentStore) *RetrievalRegistry {
	r := &RetrievalRegistry{strategies: map[models.SourceKind]RetrievalStrategy{}}
	r.Register(models.SourceExternal, arxivStrategy{})
	if loc, ok := store.(storage.Locator); ok {
		r.Register(models.SourceHosted, hostedStrategy{locator: loc})
	}
	return r
}

// Register setzt die Strategie für eine Quellart.
func (r *RetrievalRegistry) Register(kind models.SourceKind, s RetrievalStrategy) {
	r.strategies[kind] = s
}

// Locate löst den Ort des Volltexts auf.
func (r *RetrievalRegistry) Locate(p models.Paper) (*SourceLocation, error) {
	s, ok := r.strategies[p.SourceKind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoRetrieval, p.SourceKind)
	}
	return s.Locate(p)
}

type arxivStrategy struct{}

func (arxivStrategy) Locate(p models.Paper) (*SourceLocation, error) {
	if p.ExternalID == "" {
		return nil, fmt.Errorf("paper %s has no arXiv id", p.ID)
	}
	return &SourceLocation{
		Kind:      models.SourceExternal,
		URL:       arxiv.AbsURL(p.ExternalID),
		PDFURL:    arxiv.PDFURL(p.ExternalID),
		ReaderURL: arxiv.ReaderURL(p.ExternalID),
	}, nil
}

type hostedStrategy struct {
	locator storage.Locator
}

func (s hostedStrategy) Locate(p models.Paper) (*SourceLocation, error) {
	if p.HostedPath == "" {
		return nil, fmt.Errorf("paper %s has no source path", p.ID)
	}
	u := s.locator.FileURL(p.HostedPath)
	return &SourceLocation{Kind: models.SourceHosted, URL: u, PDFURL: u}, nil
}
