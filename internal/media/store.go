// AngelaMos | 2026
// store.go

package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/carterperez-dev/blog-api/internal/config"
	"github.com/carterperez-dev/blog-api/internal/core"
)

const (
	KindProfile = "profiles"
	KindPost    = "posts"
)

// Store keeps image bytes out of the user and post records. Records only
// hold the object key.
type Store interface {
	Put(ctx context.Context, key string, upload *Upload) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

func NewKey(kind, ownerID string) string {
	return fmt.Sprintf("%s/%s/%s", kind, ownerID, uuid.New().String())
}

type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(
	ctx context.Context,
	cfg config.StorageConfig,
) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinioStore{client: client, bucket: cfg.Bucket}

	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}

	return nil
}

func (s *MinioStore) Put(ctx context.Context, key string, upload *Upload) error {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		key,
		upload.Reader(),
		upload.Size,
		minio.PutObjectOptions{ContentType: upload.ContentType},
	)
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) Get(ctx context.Context, key string) (*Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close() //nolint:errcheck // object is unusable
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("get object %s: %w", key, core.ErrNotFound)
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}

	return &Object{
		Body:        obj,
		Size:        info.Size,
		ContentType: info.ContentType,
		ModTime:     info.LastModified,
	}, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.client.BucketExists(pingCtx, s.bucket); err != nil {
		return fmt.Errorf("object store ping failed: %w", err)
	}
	return nil
}

// Serve streams obj to the client and closes it.
func Serve(w http.ResponseWriter, obj *Object) {
	defer obj.Body.Close() //nolint:errcheck // read-only stream

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	h.Set("Cache-Control", "public, max-age=300")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Security-Policy", "default-src 'none'; sandbox")
	if !obj.ModTime.IsZero() {
		h.Set("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
	}

	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client may disconnect mid-stream
	_, _ = io.Copy(w, obj.Body)
}
