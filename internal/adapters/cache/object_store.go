package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/felixgeelhaar/stepflow/internal/domain/checkpoint"
)

// ObjectStoreConfig configures the S3-compatible checkpoint backend.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	Prefix    string
}

// Validate checks that the required settings are present.
func (c ObjectStoreConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("object store endpoint is required")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.New("object store credentials are required")
	}
	if c.Bucket == "" {
		return errors.New("object store bucket is required")
	}
	return nil
}

// NewObjectStoreClient builds a minio client from the config.
func NewObjectStoreClient(cfg ObjectStoreConfig) (*minio.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
}

// ObjectStore implements checkpoint.Store on an S3-compatible bucket. Each
// checkpoint lives at <prefix>/<name><Extension>.
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewObjectStore creates an ObjectStore writing into the given bucket and prefix.
func NewObjectStore(client *minio.Client, bucket, prefix string) *ObjectStore {
	return &ObjectStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// EnsureBucket creates the backing bucket if it does not exist.
func (s *ObjectStore) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region})
}

func (s *ObjectStore) key(name string) string {
	return path.Join(s.prefix, name+Extension)
}

// Save writes the snapshot under its name, replacing any previous one.
func (s *ObjectStore) Save(ctx context.Context, snap checkpoint.Snapshot) error {
	if snap.Name == "" {
		return checkpoint.ErrEmptyName
	}
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(
		ctx,
		s.bucket,
		s.key(snap.Name),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	return err
}

// Load reads and decodes the snapshot stored under name.
func (s *ObjectStore) Load(ctx context.Context, name string) (*checkpoint.Snapshot, error) {
	if name == "" {
		return nil, checkpoint.ErrEmptyName
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, checkpoint.NewNotFoundError(name)
		}
		return nil, err
	}
	return checkpoint.Decode(name, data)
}

// Exists reports whether a snapshot is stored under name.
func (s *ObjectStore) Exists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, checkpoint.ErrEmptyName
	}
	_, err := s.client.StatObject(ctx, s.bucket, s.key(name), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the snapshot stored under name.
func (s *ObjectStore) Delete(ctx context.Context, name string) error {
	if name == "" {
		return checkpoint.ErrEmptyName
	}
	exists, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return checkpoint.NewNotFoundError(name)
	}
	return s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
}

// List returns metadata for all stored checkpoints under the prefix.
func (s *ObjectStore) List(ctx context.Context) ([]checkpoint.Info, error) {
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}

	infos := make([]checkpoint.Info, 0)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if !strings.HasSuffix(obj.Key, Extension) {
			continue
		}
		infos = append(infos, checkpoint.Info{
			Name:      strings.TrimSuffix(path.Base(obj.Key), Extension),
			CreatedAt: obj.LastModified,
			Size:      obj.Size,
		})
	}
	return infos, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}

// Ensure ObjectStore implements Store.
var _ checkpoint.Store = (*ObjectStore)(nil)
