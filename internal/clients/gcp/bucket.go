package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	sentinel "github.com/chaptered/core/internal/pkg/errors"
	"github.com/chaptered/core/internal/pkg/logger"
)

// ObjectStore holds plain-text chunk bodies keyed flatly under the
// resource they belong to, so a whole resource's text can be dropped by prefix on
// delete. Narrowed from an earlier dual-category bucket service to the single bucket and
// single content type (UTF-8 text) this pipeline ever writes — no avatar bucket
// category survives here since nothing in this core stores user avatars.
type ObjectStore interface {
	// PutText upserts the chunk's text under its resource/chunk key and returns the
	// opaque ref the chunk row stores.
	PutText(ctx context.Context, resourceID string, chunkID int, text string) (ref string, err error)
	// GetText resolves a ref back to its text body.
	GetText(ctx context.Context, ref string) (string, error)
	// DeleteText removes a single object. Deleting a ref that does not exist is not
	// an error (idempotent).
	DeleteText(ctx context.Context, ref string) error
	// DeleteAllForResource removes every object whose key is prefixed by resourceID.
	// Must succeed even when no objects exist.
	DeleteAllForResource(ctx context.Context, resourceID string) error
}

type objectStore struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
}

// NewObjectStore constructs the store over a single GCS bucket named by GCS_MATERIAL_BUCKET.
func NewObjectStore(log *logger.Logger) (ObjectStore, error) {
	bucketName := strings.TrimSpace(os.Getenv("GCS_MATERIAL_BUCKET"))
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var GCS_MATERIAL_BUCKET")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &objectStore{
		log:           log.With("service", "ObjectStore"),
		storageClient: stClient,
		bucketName:    bucketName,
	}, nil
}

// objectKey builds the flat "<resource_id>/<chunk_id>.txt" namespace.
func objectKey(resourceID string, chunkID int) string {
	return fmt.Sprintf("%s/%d.txt", resourceID, chunkID)
}

func (s *objectStore) PutText(ctx context.Context, resourceID string, chunkID int, text string) (string, error) {
	key := objectKey(resourceID, chunkID)

	writeCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.storageClient.Bucket(s.bucketName).Object(key).NewWriter(writeCtx)
	w.ContentType = "text/plain; charset=utf-8"
	if _, err := io.Copy(w, strings.NewReader(text)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: write GCS object %q: %v", sentinel.ErrUpstream, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: close GCS writer for %q: %v", sentinel.ErrUpstream, key, err)
	}
	return key, nil
}

func (s *objectStore) GetText(ctx context.Context, ref string) (string, error) {
	readCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := s.storageClient.Bucket(s.bucketName).Object(ref).NewReader(readCtx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return "", fmt.Errorf("%w: %s", sentinel.ErrNotFound, ref)
		}
		return "", fmt.Errorf("%w: open GCS reader for %q: %v", sentinel.ErrUpstream, ref, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read GCS object %q: %v", sentinel.ErrUpstream, ref, err)
	}
	return string(data), nil
}

func (s *objectStore) DeleteText(ctx context.Context, ref string) error {
	deleteCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.storageClient.Bucket(s.bucketName).Object(ref).Delete(deleteCtx); err != nil {
		if err == storage.ErrObjectNotExist {
			return nil // idempotent delete.
		}
		return fmt.Errorf("%w: delete GCS object %q: %v", sentinel.ErrUpstream, ref, err)
	}
	return nil
}

func (s *objectStore) DeleteAllForResource(ctx context.Context, resourceID string) error {
	listCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	prefix := resourceID + "/"
	it := s.storageClient.Bucket(s.bucketName).Objects(listCtx, &storage.Query{Prefix: prefix})

	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: list GCS objects under %q: %v", sentinel.ErrUpstream, prefix, err)
		}
		keys = append(keys, attrs.Name)
	}

	for _, key := range keys {
		if err := s.DeleteText(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
