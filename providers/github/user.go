package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paper-hub/config"
	"paper-hub/httpx"
	"paper-hub/models"

	"go.uber.org/zap"
)

var (
	// ErrInvalidToken meldet ein abgelehntes Zugriffstoken.
	ErrInvalidToken = errors.New("invalid GitHub token")
	// ErrRepositoryNotFound meldet ein unbekanntes oder nicht freigegebenes Repository.
	ErrRepositoryNotFound = errors.New("repository not found")
)

type userResponse struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Fetcher kapselt die Logik für die GitHub-Benutzer- und Repository-API.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
	Client *http.Client
}

// NewFetcher erstellt einen neuen GitHub-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Logger: logger,
		Client: httpx.NewClient(cfg.GitHubToken, cfg.StoreTimeout),
	}
}

func (f *Fetcher) Name() string { return "github" }

// CurrentUser holt den Benutzer zum konfigurierten Token.
func (f *Fetcher) CurrentUser(ctx context.Context) (*models.User, error) {
	resp, err := f.get(ctx, "/user")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		return nil, fmt.Errorf("github user request failed with status: %d", resp.StatusCode)
	}

	var ur userResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, err
	}
	if ur.Login == "" {
		return nil, fmt.Errorf("github user response without login")
	}

	f.Logger.Info("GitHub-Benutzer aufgelöst.", zap.String("login", ur.Login))
	return &models.User{Login: ur.Login, AvatarURL: ur.AvatarURL}, nil
}

// VerifyRepository prüft, ob das konfigurierte Repository mit dem Token erreichbar ist.
func (f *Fetcher) VerifyRepository(ctx context.Context) error {
	repo := f.Config.GitHubOwner + "/" + f.Config.GitHubRepo
	log := f.Logger.With(zap.String("repo", repo))

	resp, err := f.get(ctx, fmt.Sprintf("/repos/%s/%s", url.PathEscape(f.Config.GitHubOwner), url.PathEscape(f.Config.GitHubRepo)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug("Repository erreichbar.")
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrRepositoryNotFound, repo)
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrInvalidToken
	default:
		return fmt.Errorf("github repository request failed with status: %d", resp.StatusCode)
	}
}

func (f *Fetcher) get(ctx context.Context, path string) (*http.Response, error) {
	target := strings.TrimRight(f.Config.GitHubAPIURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	f.Logger.Debug("GitHub API aufgerufen.",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}
