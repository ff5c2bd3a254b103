package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"paper-hub/config"
	"paper-hub/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const backupPrefix = "library-"

type BackupConfig struct {
	BackupBucket    string `envconfig:"BACKUP_S3_BUCKET" required:"true"`
	BackupEndpoint  string `envconfig:"BACKUP_S3_ENDPOINT" required:"true"`
	BackupAccessKey string `envconfig:"BACKUP_S3_ACCESS_KEY" required:"true"`
	BackupSecretKey string `envconfig:"BACKUP_S3_SECRET_KEY" required:"true"`
	BackupRegion    string `envconfig:"BACKUP_S3_REGION" required:"true"`
	KeepBackups     int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

// backupAPI ist der Teil des S3-Clients, den das Backup braucht.
type backupAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()
	logging.Info("Starte Backup-Prozess...")

	var bcfg BackupConfig
	if err := envconfig.Process("", &bcfg); err != nil {
		logging.Fatal("Fehler beim Laden der Backup-Konfiguration", zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Fehler beim Laden der Konfiguration", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal("Ungültige Konfiguration", zap.Error(err))
	}

	ctx := context.Background()

	// 1. Aktuellen Stand der Bibliothek lesen
	store, err := storage.New(ctx, cfg, logging)
	if err != nil {
		logging.Fatal("Fehler beim Öffnen des Stores", zap.Error(err))
	}
	archive, snap, err := createArchive(ctx, store)
	if errors.Is(err, storage.ErrNotFound) {
		logging.Info("Noch kein Bibliotheksdokument vorhanden, nichts zu sichern.")
		return
	}
	if err != nil {
		logging.Fatal("Fehler beim Erstellen des Archivs", zap.Error(err))
	}

	// 2. S3-Client erstellen
	s3Client, err := storage.NewS3Client(ctx, storage.S3Endpoint{
		URL:    bcfg.BackupEndpoint,
		Region: bcfg.BackupRegion,
		Key:    bcfg.BackupAccessKey,
		Secret: bcfg.BackupSecretKey,
	})
	if err != nil {
		logging.Fatal("Fehler beim Erstellen des S3-Clients", zap.Error(err))
	}

	// 3. Backup nach S3 hochladen
	fileName := backupKey(time.Now())
	if err := uploadToS3(ctx, s3Client, bcfg, fileName, archive, snap.Version); err != nil {
		logging.Fatal("Fehler beim Hochladen nach S3", zap.Error(err))
	}
	logging.Info("Backup erfolgreich hochgeladen",
		zap.String("target", fmt.Sprintf("s3://%s/%s", bcfg.BackupBucket, fileName)),
		zap.Int("papers", len(snap.Library)),
		zap.String("version", string(snap.Version)))

	// 4. Alte Backups rotieren
	if err := rotateBackups(ctx, s3Client, bcfg, logging); err != nil {
		logging.Fatal("Fehler bei der Rotation alter Backups", zap.Error(err))
	}

	logging.Info("Backup-Prozess erfolgreich abgeschlossen.")
}

func backupKey(now time.Time) string {
	return fmt.Sprintf("%s%s.json.gz", backupPrefix, now.UTC().Format("2006-01-02T15-04-05Z"))
}

// createArchive liest das Dokument und komprimiert es mit gzip.
func createArchive(ctx context.Context, store storage.DocumentStore) ([]byte, *storage.Snapshot, error) {
	snap, err := store.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	data, err := storage.Encode(snap.Library)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := gzipWriter.Write(data); err != nil {
		return nil, nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), snap, nil
}

func uploadToS3(ctx context.Context, client backupAPI, cfg BackupConfig, key string, data []byte, version storage.Version) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(cfg.BackupBucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(data),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
		Metadata:        map[string]string{"library-version": string(version)},
	})
	return err
}

func rotateBackups(ctx context.Context, client backupAPI, cfg BackupConfig, logging *zap.Logger) error {
	output, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(cfg.BackupBucket),
		Prefix: aws.String(backupPrefix),
	})
	if err != nil {
		return err
	}

	if len(output.Contents) <= cfg.KeepBackups {
		logging.Info("Keine Rotation nötig.", zap.Int("vorhanden", len(output.Contents)), zap.Int("behalten", cfg.KeepBackups))
		return nil
	}

	sort.Slice(output.Contents, func(i, j int) bool {
		return aws.ToTime(output.Contents[i].LastModified).After(aws.ToTime(output.Contents[j].LastModified))
	})

	for _, obj := range output.Contents[cfg.KeepBackups:] {
		logging.Info("Lösche altes Backup", zap.String("key", aws.ToString(obj.Key)))
		_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(cfg.BackupBucket),
			Key:    obj.Key,
		})
		if err != nil {
			logging.Warn("Fehler beim Löschen", zap.String("key", aws.ToString(obj.Key)), zap.Error(err))
		}
	}

	return nil
}
