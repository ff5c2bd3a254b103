package models

import (
	"time"
)

// SourceKind bestimmt, wie der Volltext eines Papers gefunden wird.
type SourceKind string

const (
	// SourceExternal verweist auf einen externen Katalog (arXiv).
	SourceExternal SourceKind = "arxiv"
	// SourceHosted verweist auf eine Datei im Speicher der Bibliothek.
	SourceHosted SourceKind = "repo"
)

// Valid meldet, ob k eine bekannte Quellart ist.
func (k SourceKind) Valid() bool {
	return k == SourceExternal || k == SourceHosted
}

// Paper ist ein Eintrag der gemeinsamen Bibliothek.
type Paper struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	SourceKind SourceKind `json:"type" yaml:"type"`

	ExternalID string `json:"arxivId,omitempty" yaml:"arxiv_id,omitempty"`
	HostedPath string `json:"sourcePath,omitempty" yaml:"source_path,omitempty"`

	AddedBy string    `json:"addedBy" yaml:"added_by"`
	AddedAt time.Time `json:"addedAt" yaml:"added_at"`

	Tags     []string  `json:"tags" yaml:"tags"`
	Comments []Comment `json:"comments" yaml:"comments"`
}

// Comment ist eine Anmerkung zu einem Paper. Kommentare werden nur angehängt.
type Comment struct {
	ID           string    `json:"id" yaml:"id"`
	Text         string    `json:"text" yaml:"text"`
	PageRef      string    `json:"page,omitempty" yaml:"page,omitempty"`
	Quote        string    `json:"quote,omitempty" yaml:"quote,omitempty"`
	Author       string    `json:"user" yaml:"user"`
	AuthorAvatar string    `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
}

// Library ist das gesamte gespeicherte Dokument.
type Library []Paper

// Find liefert den Index des Papers mit der ID oder -1.
func (l Library) Find(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone kopiert die Bibliothek tief genug, dass Änderungen an der Kopie
// weder Tags noch Kommentare des Originals berühren.
func (l Library) Clone() Library {
	if l == nil {
		return Library{}
	}
	out := make(Library, len(l))
	for i, p := range l {
		out[i] = p.Clone()
	}
	return out
}

// Clone kopiert ein Paper samt Tags und Kommentaren.
func (p Paper) Clone() Paper {
	cp := p
	cp.Tags = append(make([]string, 0, len(p.Tags)), p.Tags...)
	cp.Comments = append(make([]Comment, 0, len(p.Comments)), p.Comments...)
	return cp
}
