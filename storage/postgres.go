package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"paper-hub/models"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenPostgres öffnet die Datenbankverbindung für den PostgresStore.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), GormConfig())
}

// GormConfig übersetzt Treiberfehler (z.B. Unique-Verletzungen) in gorm-Fehler.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
	}
}

// PostgresStore hält das Dokument als Zeile in library_documents.
// Das Versionstoken ist der Zähler der Zeile als Dezimalzahl.
type PostgresStore struct {
	DB      *gorm.DB
	Path    string
	Timeout time.Duration
	Logger  *zap.Logger
}

func (s *PostgresStore) Name() string { return "postgres" }

// Migrate legt die Tabelle an.
func (s *PostgresStore) Migrate() error {
	return s.DB.AutoMigrate(&models.LibraryDocument{})
}

func (s *PostgresStore) Fetch(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var doc models.LibraryDocument
	err := s.DB.WithContext(ctx).Where("path = ?", s.Path).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Backend: s.Name(), Op: "fetch", Err: err}
	}

	lib, err := Decode([]byte(doc.Content))
	if err != nil {
		return nil, &StoreError{Backend: s.Name(), Op: "fetch", Err: err}
	}
	return &Snapshot{Library: lib, Version: Version(strconv.FormatInt(doc.Version, 10))}, nil
}

func (s *PostgresStore) Write(ctx context.Context, lib models.Library, expected Version, message string) (Version, error) {
	data, err := Encode(lib)
	if err != nil {
		return NoVersion, &StoreError{Backend: s.Name(), Op: "write", Err: err}
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	now := time.Now().UTC()

	if expected == NoVersion {
		doc := models.LibraryDocument{
			Path:        s.Path,
			Content:     string(data),
			Version:     1,
			LastMessage: message,
			UpdatedAt:   now,
		}
		if err := s.DB.WithContext(ctx).Create(&doc).Error; err != nil {
			if isUniqueViolation(err) {
				return NoVersion, &ConflictError{Backend: s.Name(), Expected: expected, Detail: "document already exists"}
			}
			return NoVersion, &StoreError{Backend: s.Name(), Op: "write", Err: err}
		}
		return Version("1"), nil
	}

	current, err := strconv.ParseInt(string(expected), 10, 64)
	if err != nil {
		return NoVersion, &ConflictError{Backend: s.Name(), Expected: expected, Detail: "malformed version token"}
	}

	res := s.DB.WithContext(ctx).
		Model(&models.LibraryDocument{}).
		Where("path = ? AND version = ?", s.Path, current).
		Updates(map[string]interface{}{
			"content":      string(data),
			"version":      current + 1,
			"last_message": message,
			"updated_at":   now,
		})
	if res.Error != nil {
		return NoVersion, &StoreError{Backend: s.Name(), Op: "write", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return NoVersion, &ConflictError{Backend: s.Name(), Expected: expected}
	}
	s.Logger.Debug("library row updated", zap.String("path", s.Path), zap.Int64("version", current+1))
	return Version(strconv.FormatInt(current+1, 10)), nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
