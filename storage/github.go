package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paper-hub/httpx"
	"paper-hub/models"

	"go.uber.org/zap"
)

const (
	githubJSON = "application/vnd.github+json"
	githubRaw  = "application/vnd.github.raw"
)

// GitHubStore speichert die Bibliothek als Datei in einem GitHub-Repository.
// Das Versionstoken ist der Blob-SHA der Datei.
type GitHubStore struct {
	BaseURL string
	Owner   string
	Repo    string
	Path    string
	Branch  string
	Timeout time.Duration
	Client  *http.Client
	Logger  *zap.Logger
}

// NewGitHubStore erstellt einen Store für owner/repo/path.
func NewGitHubStore(baseURL, owner, repo, path, branch, token string, timeout time.Duration, logger *zap.Logger) *GitHubStore {
	return &GitHubStore{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Owner:   owner,
		Repo:    repo,
		Path:    strings.Trim(path, "/"),
		Branch:  branch,
		Timeout: timeout,
		Client:  httpx.NewClient(token, 0),
		Logger:  logger,
	}
}

type contentsResponse struct {
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putContentsResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

type githubError struct {
	Message string `json:"message"`
}

func (s *GitHubStore) Name() string { return "github" }

// FileURL liefert den Contents-Endpunkt einer gehosteten Datei.
// Abruf mit Accept: application/vnd.github.raw liefert den Rohinhalt.
func (s *GitHubStore) FileURL(path string) string {
	return s.contentsURL(path)
}

func (s *GitHubStore) Fetch(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	log := s.Logger.With(zap.String("repo", s.Owner+"/"+s.Repo), zap.String("path", s.Path))

	resp, err := s.do(ctx, http.MethodGet, s.contentsURL(s.Path), githubJSON, nil)
	if err != nil {
		return nil, &StoreError{Backend: s.Name(), Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Debug("library document does not exist yet")
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, s.statusError("fetch", resp)
	}

	var cr contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, &StoreError{Backend: s.Name(), Op: "fetch", Message: "invalid contents response", Err: err}
	}

	var raw []byte
	switch {
	case cr.Encoding == "base64":
		raw, err = base64.StdEncoding.DecodeString(strings.NewReplacer("\n", "", "\r", "").Replace(cr.Content))
		if err != nil {
			return nil, &StoreError{Backend: s.Name(), Op: "fetch", Message: "invalid base64 content", Err: err}
		}
	case cr.Size > 0:
		// Dateien über 1 MB liefert die API ohne Inhalt (encoding "none").
		log.Debug("content not inlined, reading raw", zap.Int64("size", cr.Size))
		raw, err = s.fetchRaw(ctx)
		if err != nil {
			return nil, err
		}
	}

	lib, err := Decode(raw)
	if err != nil {
		return nil, &StoreError{Backend: s.Name(), Op: "fetch", Err: err}
	}
	return &Snapshot{Library: lib, Version: Version(cr.SHA)}, nil
}

func (s *GitHubStore) fetchRaw(ctx context.Context) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, s.contentsURL(s.Path), githubRaw, nil)
	if err != nil {
		return nil, &StoreError{Backend: s.Name(), Op: "fetch", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, s.statusError("fetch", resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StoreError{Backend: s.Name(), Op: "fetch", Err: err}
	}
	return data, nil
}

func (s *GitHubStore) Write(ctx context.Context, lib models.Library, expected Version, message string) (Version, error) {
	data, err := Encode(lib)
	if err != nil {
		return NoVersion, &StoreError{Backend: s.Name(), Op: "write", Err: err}
	}

	body, err := json.Marshal(putContentsRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(data),
		SHA:     string(expected),
		Branch:  s.Branch,
	})
	if err != nil {
		return NoVersion, &StoreError{Backend: s.Name(), Op: "write", Err: err}
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	resp, err := s.do(ctx, http.MethodPut, s.contentsURL(s.Path), githubJSON, body)
	if err != nil {
		return NoVersion, &StoreError{Backend: s.Name(), Op: "write", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var pr putContentsResponse
		if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
			return NoVersion, &StoreError{Backend: s.Name(), Op: "write", Message: "invalid write response", Err: err}
		}
		s.Logger.Debug("library document written",
			zap.String("path", s.Path),
			zap.String("sha", pr.Content.SHA))
		return Version(pr.Content.SHA), nil
	case http.StatusConflict:
		return NoVersion, &ConflictError{Backend: s.Name(), Expected: expected, Detail: readMessage(resp.Body)}
	case http.StatusUnprocessableEntity:
		msg := readMessage(resp.Body)
		// Ohne SHA auf eine existierende Datei oder mit falschem SHA antwortet GitHub mit 422.
		if expected == NoVersion || strings.Contains(strings.ToLower(msg), "sha") {
			return NoVersion, &ConflictError{Backend: s.Name(), Expected: expected, Detail: msg}
		}
		return NoVersion, &StoreError{Backend: s.Name(), Op: "write", StatusCode: resp.StatusCode, Message: msg}
	default:
		return NoVersion, s.statusError("write", resp)
	}
}

func (s *GitHubStore) do(ctx context.Context, method, target, accept string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.Client.Do(req)
}

func (s *GitHubStore) contentsURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.BaseURL, url.PathEscape(s.Owner), url.PathEscape(s.Repo), strings.Join(segments, "/"))
	if s.Branch != "" {
		u += "?ref=" + url.QueryEscape(s.Branch)
	}
	return u
}

func (s *GitHubStore) statusError(op string, resp *http.Response) error {
	return &StoreError{
		Backend:    s.Name(),
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    readMessage(resp.Body),
	}
}

func readMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var ge githubError
	if err := json.Unmarshal(data, &ge); err == nil && ge.Message != "" {
		return ge.Message
	}
	return strings.TrimSpace(string(data))
}
