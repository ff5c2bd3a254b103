package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"paper-hub/models"
)

// Encode serialisiert die Bibliothek mit zwei Leerzeichen Einrückung.
func Encode(lib models.Library) ([]byte, error) {
	if lib == nil {
		lib = models.Library{}
	}
	for i := range lib {
		if lib[i].Tags == nil || lib[i].Comments == nil {
			lib = normalize(lib)
			break
		}
	}
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode library: %w", err)
	}
	return data, nil
}

// Decode liest ein Dokument. Leerer Inhalt oder null ergibt eine leere Bibliothek.
func Decode(data []byte) (models.Library, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.Library{}, nil
	}
	var lib models.Library
	if err := json.Unmarshal(trimmed, &lib); err != nil {
		return nil, fmt.Errorf("decode library: %w", err)
	}
	return normalize(lib), nil
}

func normalize(lib models.Library) models.Library {
	out := make(models.Library, len(lib))
	for i, p := range lib {
		if p.Tags == nil {
			p.Tags = []string{}
		}
		if p.Comments == nil {
			p.Comments = []models.Comment{}
		}
		out[i] = p
	}
	return out
}
