package services

import (
	"fmt"
	"strings"

	"paper-hub/models"
	"paper-hub/providers/arxiv"
)

// FormatReference renders a single paper into a compact reference string
func FormatReference(p models.Paper) string {
	title := p.Title
	if title == "" {
		title = "Untitled"
	}

	var tail []string
	switch p.SourceKind {
	case models.SourceExternal:
		if p.ExternalID != "" {
			tail = append(tail, "arXiv:"+p.ExternalID, arxiv.AbsURL(p.ExternalID))
		}
	case models.SourceHosted:
		if p.HostedPath != "" {
			tail = append(tail, p.HostedPath)
		}
	}
	tailStr := strings.Join(tail, " ")
	if tailStr != "" {
		tailStr = " " + tailStr
	}

	added := "n.d."
	if !p.AddedAt.IsZero() {
		added = p.AddedAt.UTC().Format("2006-01-02")
	}
	by := p.AddedBy
	if by == "" {
		by = "unknown"
	}

	ref := fmt.Sprintf("%s.%s (added by %s, %s)", title, tailStr, by, added)
	if len(p.Tags) > 0 {
		ref += " [" + strings.Join(p.Tags, ", ") + "]"
	}
	return ref
}

// BuildBibliography numbers the library in stored order, newest first
func BuildBibliography(lib models.Library) []string {
	out := make([]string, 0, len(lib))
	for i, p := range lib {
		out = append(out, fmt.Sprintf("[%d] %s", i+1, FormatReference(p)))
	}
	return out
}
