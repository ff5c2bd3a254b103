package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"paper-hub/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// S3Endpoint beschreibt einen S3-kompatiblen Endpunkt (AWS, Strato, MinIO).
type S3Endpoint struct {
	URL    string
	Region string
	Key    string
	Secret string
}

// NewS3Client erstellt einen S3-Client für einen festen Endpunkt.
func NewS3Client(ctx context.Context, ep S3Endpoint) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               ep.URL,
				SigningRegion:     ep.Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(ep.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(ep.Key, ep.Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// S3API ist der Teil des S3-Clients, den der Store braucht.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store speichert die Bibliothek als Objekt. Das ETag ist das Versionstoken,
// bedingtes Schreiben läuft über If-Match bzw. If-None-Match.
type S3Store struct {
	Client   S3API
	Bucket   string
	Key      string
	Endpoint string
	Timeout  time.Duration
	Logger   *zap.Logger
}

func (s *S3Store) Name() string { return "s3" }

// FileURL liefert den Objektlink einer gehosteten Datei im selben Bucket.
func (s *S3Store) FileURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.Endpoint, "/"), s.Bucket, strings.TrimLeft(path, "/"))
}

func (s *S3Store) Fetch(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, s.storeError("fetch", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.storeError("fetch", err)
	}
	lib, err := Decode(data)
	if err != nil {
		return nil, s.storeError("fetch", err)
	}
	return &Snapshot{Library: lib, Version: Version(aws.ToString(out.ETag))}, nil
}

func (s *S3Store) Write(ctx context.Context, lib models.Library, expected Version, message string) (Version, error) {
	data, err := Encode(lib)
	if err != nil {
		return NoVersion, s.storeError("write", err)
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"commit-message": asciiMetadata(message)},
	}
	if expected == NoVersion {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(string(expected))
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	out, err := s.Client.PutObject(ctx, in)
	if err != nil {
		if isS3Conflict(err) {
			return NoVersion, &ConflictError{Backend: s.Name(), Expected: expected, Detail: err.Error()}
		}
		return NoVersion, s.storeError("write", err)
	}
	s.Logger.Debug("library object written",
		zap.String("bucket", s.Bucket),
		zap.String("key", s.Key),
		zap.String("etag", aws.ToString(out.ETag)))
	return Version(aws.ToString(out.ETag)), nil
}

func (s *S3Store) storeError(op string, err error) error {
	se := &StoreError{Backend: s.Name(), Op: op, Err: err}
	var re interface{ HTTPStatusCode() int }
	if errors.As(err, &re) {
		se.StatusCode = re.HTTPStatusCode()
	}
	return se
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func isS3Conflict(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var re interface{ HTTPStatusCode() int }
	if errors.As(err, &re) {
		code := re.HTTPStatusCode()
		return code == http.StatusPreconditionFailed || code == http.StatusConflict
	}
	return false
}

// S3-Metadaten sind auf ASCII beschränkt.
func asciiMetadata(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
