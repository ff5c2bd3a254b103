package models

import (
	"time"
)

// LibraryDocument speichert das Bibliotheksdokument in PostgreSQL.
// Version wird bei jedem Schreiben hochgezählt und dient als Versionstoken.
type LibraryDocument struct {
	Path        string    `json:"path" gorm:"primaryKey;column:path"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	Version     int64     `json:"version" gorm:"not null"`
	LastMessage string    `json:"last_message,omitempty" gorm:"type:text"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName legt den Tabellennamen fest.
func (LibraryDocument) TableName() string {
	return "library_documents"
}
