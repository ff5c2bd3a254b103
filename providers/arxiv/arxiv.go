package arxiv

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidID wird geliefert, wenn die Eingabe keine arXiv-ID enthält.
var ErrInvalidID = errors.New("invalid arXiv identifier")

var (
	urlPattern      = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf|html)/([^?#\s]+)`)
	versionSuffix   = regexp.MustCompile(`v\d+$`)
	newStylePattern = regexp.MustCompile(`^\d{4}\.\d{4,5}$`)
	oldStylePattern = regexp.MustCompile(`^[a-z][a-z\-]*(\.[A-Z]{2})?/\d{7}$`)
)

// NormalizeID akzeptiert nackte IDs, "arXiv:"-Präfixe und abs/pdf-URLs und
// gibt die ID ohne Versionssuffix zurück, z.B. "2301.00001" oder "hep-th/9901001".
func NormalizeID(input string) (string, error) {
	id := strings.TrimSpace(input)
	if m := urlPattern.FindStringSubmatch(id); m != nil {
		id = m[1]
	}
	if len(id) > 6 && strings.EqualFold(id[:6], "arxiv:") {
		id = id[6:]
	}
	id = strings.TrimSuffix(strings.TrimSuffix(id, "/"), ".pdf")
	id = versionSuffix.ReplaceAllString(id, "")

	if newStylePattern.MatchString(id) || oldStylePattern.MatchString(id) {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidID, input)
}

// AbsURL liefert die Abstract-Seite.
func AbsURL(id string) string {
	return "https://arxiv.org/abs/" + id
}

// PDFURL liefert den direkten PDF-Link.
func PDFURL(id string) string {
	return "https://arxiv.org/pdf/" + id
}

// ReaderURL liefert die HTML-Ansicht, die sich einbetten lässt.
func ReaderURL(id string) string {
	return "https://arxiv.org/html/" + id
}
