package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Unterstützte Speicher-Backends für das Bibliotheksdokument.
const (
	BackendGitHub   = "github"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	StoreBackend string        `envconfig:"STORE_BACKEND" default:"github"`
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"15s"`

	// Sync-Verhalten bei Versionskonflikten
	SyncMaxAttempts  int           `envconfig:"SYNC_MAX_ATTEMPTS" default:"3"`
	SyncRetryBackoff time.Duration `envconfig:"SYNC_RETRY_BACKOFF" default:"250ms"`
	CommitPrefix     string        `envconfig:"COMMIT_PREFIX" default:"paper-hub"`

	GitHubAPIURL string `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`
	GitHubOwner  string `envconfig:"GITHUB_OWNER"`
	GitHubRepo   string `envconfig:"GITHUB_REPO"`
	GitHubToken  string `envconfig:"GITHUB_TOKEN"`
	GitHubPath   string `envconfig:"GITHUB_PATH" default:"paper-library.json"`
	GitHubBranch string `envconfig:"GITHUB_BRANCH"`

	LibraryS3URL    string `envconfig:"LIBRARY_S3_URL"`
	LibraryS3Region string `envconfig:"LIBRARY_S3_REGION" default:"us-east-1"`
	LibraryS3Key    string `envconfig:"LIBRARY_S3_KEY"`
	LibraryS3Secret string `envconfig:"LIBRARY_S3_SECRET"`
	LibraryS3Bucket string `envconfig:"LIBRARY_S3_BUCKET"`
	LibraryS3Object string `envconfig:"LIBRARY_S3_OBJECT" default:"paper-library.json"`

	DBHost         string `envconfig:"DB_HOST"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER"`
	DBPassword     string `envconfig:"DB_PASSWORD"`
	DBName         string `envconfig:"DB_NAME"`
	DBSSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	DBDocumentPath string `envconfig:"DB_DOCUMENT_PATH" default:"paper-library.json"`

	// Demo-Modus: In-Memory-Store, optional mit Startdaten
	MemorySeedFile string `envconfig:"MEMORY_SEED_FILE"`

	// Identität für Backends ohne eigenes Benutzerkonto
	UserLogin  string `envconfig:"USER_LOGIN" default:"demo"`
	UserAvatar string `envconfig:"USER_AVATAR"`

	HTTPPort        string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey    string `envconfig:"API_SECRET_KEY"`
	RefreshSchedule string `envconfig:"REFRESH_SCHEDULE" default:"@every 5m"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// Validate prüft die Pflichtfelder des gewählten Backends.
func (c *Config) Validate() error {
	var missing []string
	need := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	switch c.StoreBackend {
	case BackendGitHub:
		need("GITHUB_OWNER", c.GitHubOwner)
		need("GITHUB_REPO", c.GitHubRepo)
		need("GITHUB_TOKEN", c.GitHubToken)
		need("GITHUB_PATH", c.GitHubPath)
	case BackendS3:
		need("LIBRARY_S3_URL", c.LibraryS3URL)
		need("LIBRARY_S3_KEY", c.LibraryS3Key)
		need("LIBRARY_S3_SECRET", c.LibraryS3Secret)
		need("LIBRARY_S3_BUCKET", c.LibraryS3Bucket)
		need("LIBRARY_S3_OBJECT", c.LibraryS3Object)
	case BackendPostgres:
		need("DB_HOST", c.DBHost)
		need("DB_USER", c.DBUser)
		need("DB_NAME", c.DBName)
		need("DB_DOCUMENT_PATH", c.DBDocumentPath)
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing configuration for %s backend: %s", c.StoreBackend, strings.Join(missing, ", "))
	}
	if c.SyncMaxAttempts < 1 {
		return fmt.Errorf("SYNC_MAX_ATTEMPTS must be at least 1, got %d", c.SyncMaxAttempts)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive, got %s", c.StoreTimeout)
	}
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	return &c, nil
}
