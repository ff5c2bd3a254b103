package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"paper-hub/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeS3 bildet die bedingten Header eines S3-Objekts nach.
type fakeS3 struct {
	mu       sync.Mutex
	data     []byte
	etag     string
	seq      int
	putErr   error
	lastMeta map[string]string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.etag == "" {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(f.data)),
		ETag: aws.String(f.etag),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	if in.IfNoneMatch != nil && f.etag != "" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	if in.IfMatch != nil && aws.ToString(in.IfMatch) != f.etag {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.seq++
	f.data = data
	f.etag = fmt.Sprintf("\"etag-%d\"", f.seq)
	f.lastMeta = in.Metadata
	return &s3.PutObjectOutput{ETag: aws.String(f.etag)}, nil
}

func newTestS3Store(api S3API) *S3Store {
	return &S3Store{
		Client:   api,
		Bucket:   "library",
		Key:      "paper-library.json",
		Endpoint: "https://s3.example.com/",
		Logger:   zap.NewNop(),
	}
}

func TestS3StoreConditionalWrites(t *testing.T) {
	fake := &fakeS3{}
	s := newTestS3Store(fake)
	ctx := context.Background()

	_, err := s.Fetch(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	v1, err := s.Write(ctx, models.Library{{ID: "a"}}, NoVersion, "paper-hub: ADD_PAPER by jürgen")
	require.NoError(t, err)
	assert.Equal(t, Version(`"etag-1"`), v1)
	assert.Equal(t, "paper-hub: ADD_PAPER by j?rgen", fake.lastMeta["commit-message"])

	_, err = s.Write(ctx, models.Library{}, NoVersion, "create again")
	assert.ErrorIs(t, err, ErrVersionConflict)

	snap, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, snap.Version)
	assert.Len(t, snap.Library, 1)

	v2, err := s.Write(ctx, models.Library{}, v1, "delete")
	require.NoError(t, err)

	_, err = s.Write(ctx, models.Library{}, v1, "stale")
	assert.True(t, IsConflict(err))

	snap, err = s.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, v2, snap.Version)
	assert.Empty(t, snap.Library)
}

func TestS3StoreTransportErrorIsStoreError(t *testing.T) {
	fake := &fakeS3{putErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}}
	s := newTestS3Store(fake)

	_, err := s.Write(context.Background(), models.Library{}, NoVersion, "m")
	var se *StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "write", se.Op)
	assert.False(t, IsConflict(err))
}

func TestS3StoreFileURL(t *testing.T) {
	s := newTestS3Store(&fakeS3{})
	assert.Equal(t, "https://s3.example.com/library/papers/a.pdf", s.FileURL("/papers/a.pdf"))
}
