package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ligatures = strings.NewReplacer(
		"ﬁ", "fi",
		"ﬂ", "fl",
		"ﬀ", "ff",
		"ﬃ", "ffi",
		"ﬄ", "ffl",
		"ﬆ", "st",
	)
	// Tabs, Formfeeds und geschützte Leerzeichen werden zu normalen Spaces.
	spaceRE       = regexp.MustCompile("[\t\f\v\u00A0]+")
	multiSpace    = regexp.MustCompile(` {2,}`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// normalizeUnicode führt NFC-Normalisierung durch und ersetzt Ligaturen.
// Aus PDFs kopierte Zitate enthalten sie häufig.
func normalizeUnicode(s string) string {
	s = ligatures.Replace(s)
	normalized, _, err := transform.String(transform.Chain(norm.NFC), s)
	if err != nil {
		return s
	}
	return normalized
}

// CleanText normalisiert mehrzeiligen Freitext (Kommentare, Zitate).
func CleanText(s string) string {
	s = normalizeUnicode(strings.ReplaceAll(s, "\r\n", "\n"))
	s = spaceRE.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewlines.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRightFunc(lines[i], unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// CleanLine normalisiert einzeiligen Text wie Titel oder Tags.
func CleanLine(s string) string {
	return strings.Join(strings.Fields(normalizeUnicode(s)), " ")
}

// NormalizeTags zerlegt kommagetrennte Eingaben, trimmt und entfernt Duplikate.
// Die Reihenfolge des ersten Auftretens bleibt erhalten.
func NormalizeTags(raw []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, entry := range raw {
		for _, t := range strings.Split(entry, ",") {
			t = CleanLine(t)
			if t == "" || seen[strings.ToLower(t)] {
				continue
			}
			seen[strings.ToLower(t)] = true
			out = append(out, t)
		}
	}
	return out
}
