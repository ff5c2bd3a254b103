package storage

import (
	"context"
	"fmt"
	"os"

	"paper-hub/config"
	"paper-hub/models"

	"go.uber.org/zap"
)

// New erstellt den in der Konfiguration gewählten Store.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (DocumentStore, error) {
	log := logger.With(zap.String("backend", cfg.StoreBackend))

	switch cfg.StoreBackend {
	case config.BackendGitHub:
		log.Info("using GitHub contents store",
			zap.String("repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo),
			zap.String("path", cfg.GitHubPath))
		return NewGitHubStore(cfg.GitHubAPIURL, cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubPath,
			cfg.GitHubBranch, cfg.GitHubToken, cfg.StoreTimeout, log), nil

	case config.BackendS3:
		client, err := NewS3Client(ctx, S3Endpoint{
			URL:    cfg.LibraryS3URL,
			Region: cfg.LibraryS3Region,
			Key:    cfg.LibraryS3Key,
			Secret: cfg.LibraryS3Secret,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		log.Info("using S3 object store",
			zap.String("bucket", cfg.LibraryS3Bucket),
			zap.String("key", cfg.LibraryS3Object))
		return &S3Store{
			Client:   client,
			Bucket:   cfg.LibraryS3Bucket,
			Key:      cfg.LibraryS3Object,
			Endpoint: cfg.LibraryS3URL,
			Timeout:  cfg.StoreTimeout,
			Logger:   log,
		}, nil

	case config.BackendPostgres:
		db, err := OpenPostgres(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := &PostgresStore{DB: db, Path: cfg.DBDocumentPath, Timeout: cfg.StoreTimeout, Logger: log}
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate library_documents: %w", err)
		}
		log.Info("using postgres store", zap.String("path", cfg.DBDocumentPath))
		return store, nil

	case config.BackendMemory:
		var seed models.Library
		if cfg.MemorySeedFile != "" {
			data, err := os.ReadFile(cfg.MemorySeedFile)
			if err != nil {
				return nil, fmt.Errorf("read seed file: %w", err)
			}
			lib, err := Decode(data)
			if err != nil {
				return nil, fmt.Errorf("seed file %s: %w", cfg.MemorySeedFile, err)
			}
			seed = lib
		}
		log.Info("using in-memory store (demo mode)", zap.Int("seed_papers", len(seed)))
		return NewMemoryStore(seed)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
