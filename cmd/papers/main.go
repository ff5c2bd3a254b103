package main

import (
	"context"
	"fmt"
	"os"

	"paper-hub/config"
	"paper-hub/services"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := newRootCmd(openSession, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(exitCode(err))
	}
}

// openSession lädt die Konfiguration und verbindet die Sitzung.
func openSession(ctx context.Context, debug bool) (*services.LibraryService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	library, err := services.OpenSession(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := library.Connect(ctx); err != nil {
		return nil, err
	}
	return library, nil
}
