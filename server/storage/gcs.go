package storage

import (
	"context"
	"errors"
	"io"

	gcs "cloud.google.com/go/storage"
	"github.com/cyclopcam/logs"
)

// StorageGCS is a Google Cloud Storage-based blob store
type StorageGCS struct {
	bucketName string
	bucket     *gcs.BucketHandle
	log        logs.Log
}

// NewStorageGCS connects to a public GCS bucket. The bucket must be public so
// that we can hand out direct object URLs instead of proxying media through us.
func NewStorageGCS(log logs.Log, bucketName string) (*StorageGCS, error) {
	ctx := context.Background()
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &StorageGCS{
		bucketName: bucketName,
		bucket:     client.Bucket(bucketName),
		log:        log,
	}, nil
}

func (s *StorageGCS) WriteFile(name string) (io.WriteCloser, error) {
	ctx := context.Background()
	return s.bucket.Object(name).NewWriter(ctx), nil
}

func (s *StorageGCS) ReadFile(name string) (*File, error) {
	ctx := context.Background()
	r, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	return &File{
		Reader:     r,
		ModifiedAt: r.Attrs.LastModified,
		Size:       r.Attrs.Size,
	}, nil
}

func (s *StorageGCS) DeleteFile(name string) error {
	ctx := context.Background()
	err := s.bucket.Object(name).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *StorageGCS) URL(name string) (string, error) {
	return "https://storage.googleapis.com/" + s.bucketName + "/" + name, nil
}
