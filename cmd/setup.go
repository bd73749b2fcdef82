package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/logger"
	"github.com/SamuelLeutner/fetch-canvas-grades/services"
)

// session is what every command needs before talking to Canvas.
type session struct {
	cfg    *config.Config
	log    *zap.Logger
	client *services.CanvasClient
}

func openSession(flags *pflag.FlagSet) (*session, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrValidation, "", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrValidation, "", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	log = log.With(zap.String("run_id", uuid.NewString()))

	token, err := services.ResolveToken(cfg.Token, os.Stderr)
	if err != nil {
		return nil, err
	}
	cfg.Token = token

	client, err := services.NewCanvasClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log, client: client}, nil
}

// resolveCredentialsPath falls back to a credentials.json next to the
// executable when the configured file does not exist.
func resolveCredentialsPath(configured string, log *zap.Logger) (string, error) {
	if _, err := os.Stat(configured); err == nil {
		return configured, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("check credentials file %q: %w", configured, err)
	}

	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("could not get executable path: %w", err)
	}
	fallback := filepath.Join(filepath.Dir(exePath), "credentials.json")
	log.Info("credentials file not found, trying next to the executable",
		zap.String("configured", configured),
		zap.String("fallback", fallback))

	if _, err := os.Stat(fallback); err != nil {
		return "", fmt.Errorf("credentials file not found at either %q or %q", configured, fallback)
	}
	return fallback, nil
}
