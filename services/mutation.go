package services

import (
	"fmt"
	"strings"

	"paper-hub/models"
)

// MutationKind benennt eine Änderung; der Name landet in der Commit-Nachricht.
type MutationKind string

const (
	KindAddPaper    MutationKind = "ADD_PAPER"
	KindDeletePaper MutationKind = "DELETE_PAPER"
	KindAddComment  MutationKind = "ADD_COMMENT"
)

// Mutation ist eine einzelne, auf jeden frisch gelesenen Stand anwendbare Änderung.
// Apply darf base nicht verändern und muss deterministisch sein.
type Mutation interface {
	Kind() MutationKind
	Apply(base models.Library) (models.Library, error)
}

// Apply wendet m auf base an.
func Apply(base models.Library, m Mutation) (models.Library, error) {
	if m == nil {
		return nil, invalid("mutation", "missing")
	}
	return m.Apply(base)
}

// AddPaper stellt ein neues Paper an den Anfang der Bibliothek.
type AddPaper struct {
	Paper models.Paper
}

func (AddPaper) Kind() MutationKind { return KindAddPaper }

func (m AddPaper) Apply(base models.Library) (models.Library, error) {
	p := m.Paper.Clone()
	if strings.TrimSpace(p.ID) == "" {
		return nil, invalid("id", "must not be empty")
	}
	if base.Find(p.ID) >= 0 {
		return nil, invalid("id", fmt.Sprintf("paper %q already exists", p.ID))
	}

	out := make(models.Library, 0, len(base)+1)
	out = append(out, p)
	out = append(out, base.Clone()...)
	return out, nil
}

// DeletePaper entfernt ein Paper. Eine unbekannte ID ist kein Fehler.
type DeletePaper struct {
	PaperID string
}

func (DeletePaper) Kind() MutationKind { return KindDeletePaper }

func (m DeletePaper) Apply(base models.Library) (models.Library, error) {
	out := make(models.Library, 0, len(base))
	for _, p := range base {
		if p.ID == m.PaperID {
			continue
		}
		out = append(out, p.Clone())
	}
	return out, nil
}

// AddComment hängt einen Kommentar an ein bestehendes Paper an.
type AddComment struct {
	PaperID string
	Comment models.Comment
}

func (AddComment) Kind() MutationKind { return KindAddComment }

func (m AddComment) Apply(base models.Library) (models.Library, error) {
	idx := base.Find(m.PaperID)
	if idx < 0 {
		return nil, &ValidationError{Field: "paper_id", Reason: m.PaperID, Err: ErrPaperNotFound}
	}
	if strings.TrimSpace(m.Comment.ID) == "" {
		return nil, invalid("comment.id", "must not be empty")
	}
	if strings.TrimSpace(m.Comment.Text) == "" {
		return nil, invalid("comment.text", "must not be empty")
	}
	for _, c := range base[idx].Comments {
		if c.ID == m.Comment.ID {
			return nil, invalid("comment.id", fmt.Sprintf("comment %q already exists", c.ID))
		}
	}

	out := base.Clone()
	out[idx].Comments = append(out[idx].Comments, m.Comment)
	return out, nil
}
