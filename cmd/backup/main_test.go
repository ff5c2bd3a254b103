package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"testing"
	"time"

	"paper-hub/models"
	"paper-hub/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBucket struct {
	objects []types.Object
	puts    []*s3.PutObjectInput
	deleted []string
}

func (f *fakeBucket) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{Contents: f.objects}, nil
}

func (f *fakeBucket) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestCreateArchive(t *testing.T) {
	mem, err := storage.NewMemoryStore(models.Library{{ID: "p1", Title: "Backup me"}})
	require.NoError(t, err)

	archive, snap, err := createArchive(context.Background(), mem)
	require.NoError(t, err)
	assert.Equal(t, storage.Version("1"), snap.Version)

	zr, err := gzip.NewReader(bytes.NewReader(archive))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	lib, err := storage.Decode(raw)
	require.NoError(t, err)
	require.Len(t, lib, 1)
	assert.Equal(t, "Backup me", lib[0].Title)
}

func TestCreateArchiveWithoutDocument(t *testing.T) {
	mem, err := storage.NewMemoryStore(nil)
	require.NoError(t, err)
	_, _, err = createArchive(context.Background(), mem)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUploadAndRotate(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bucket := &fakeBucket{}
	for i := 0; i < 6; i++ {
		bucket.objects = append(bucket.objects, types.Object{
			Key:          aws.String(backupKey(base.Add(time.Duration(i) * time.Hour))),
			LastModified: aws.Time(base.Add(time.Duration(i) * time.Hour)),
		})
	}
	cfg := BackupConfig{BackupBucket: "backups", KeepBackups: 4}

	require.NoError(t, uploadToS3(context.Background(), bucket, cfg, "library-x.json.gz", []byte("data"), "sha1"))
	require.Len(t, bucket.puts, 1)
	assert.Equal(t, "sha1", bucket.puts[0].Metadata["library-version"])
	assert.Equal(t, "gzip", aws.ToString(bucket.puts[0].ContentEncoding))

	require.NoError(t, rotateBackups(context.Background(), bucket, cfg, zap.NewNop()))
	assert.ElementsMatch(t, []string{
		"library-2024-06-01T00-00-00Z.json.gz",
		"library-2024-06-01T01-00-00Z.json.gz",
	}, bucket.deleted)
}
