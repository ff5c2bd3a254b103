package services

import (
	"context"

	"paper-hub/config"
	"paper-hub/providers"
	"paper-hub/providers/github"
	"paper-hub/providers/static"
	"paper-hub/storage"

	"go.uber.org/zap"
)

// OpenSession baut Store, Identität und Sync aus der Konfiguration.
// Die Sitzung ist danach noch nicht verbunden.
func OpenSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*LibraryService, error) {
	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var identity providers.IdentityProvider
	if cfg.StoreBackend == config.BackendGitHub {
		identity = github.NewFetcher(cfg, logger)
	} else {
		identity = static.New(cfg.UserLogin, cfg.UserAvatar)
	}

	syncer := NewSyncService(store, logger, cfg.SyncMaxAttempts, cfg.SyncRetryBackoff, cfg.CommitPrefix)
	return NewLibraryService(syncer, identity, logger), nil
}
