package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrSnapshotNotFound is returned when a target holds no object under the
// requested key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Target stores encoded snapshots under string keys.
type Target interface {
	// Put stores data under key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object stored under key, or ErrSnapshotNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Describe returns a human readable location for key.
	Describe(key string) string
}

// ============================================================================
// Local filesystem
// ============================================================================

// FileTarget stores snapshots as files in a directory.
type FileTarget struct {
	dir string
}

// FileTargetConfig configures a FileTarget.
type FileTargetConfig struct {
	// Dir is the directory snapshots are written to. Created if missing.
	Dir string `mapstructure:"dir"`
}

// NewFileTarget creates a file target rooted at cfg.Dir.
func NewFileTarget(cfg FileTargetConfig) (*FileTarget, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("file snapshot target requires a directory")
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", cfg.Dir, err)
	}
	return &FileTarget{dir: cfg.Dir}, nil
}

// path resolves key: absolute paths are used as-is, anything else is
// relative to the target directory.
func (t *FileTarget) path(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(t.dir, key)
}

func (t *FileTarget) Describe(key string) string {
	return t.path(key)
}

// Put writes data to a temporary file and renames it into place so a
// reader never observes a partial snapshot.
func (t *FileTarget) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst := t.path(key)
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return nil
}

func (t *FileTarget) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(t.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	return data, nil
}

// ============================================================================
// S3
// ============================================================================

// S3API is the subset of the S3 client used by S3Target.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Target stores snapshots as objects in an S3 bucket.
type S3Target struct {
	client    S3API
	bucket    string
	keyPrefix string
}

// S3TargetConfig configures an S3Target.
type S3TargetConfig struct {
	// Client is the configured S3 client
	Client S3API

	// Bucket is the S3 bucket name. It must already exist.
	Bucket string

	// KeyPrefix is prepended to every object key
	// Example: "dittoreg/snapshots/"
	KeyPrefix string
}

// NewS3Target creates an S3 snapshot target.
func NewS3Target(cfg S3TargetConfig) (*S3Target, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 snapshot target requires a client")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 snapshot target requires a bucket")
	}
	return &S3Target{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (t *S3Target) objectKey(key string) string {
	if t.keyPrefix == "" || strings.HasPrefix(key, t.keyPrefix) {
		return key
	}
	return t.keyPrefix + key
}

func (t *S3Target) Describe(key string) string {
	return fmt.Sprintf("s3://%s/%s", t.bucket, t.objectKey(key))
}

func (t *S3Target) Put(ctx context.Context, key string, data []byte) error {
	_, err := t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(t.bucket),
		Key:           aws.String(t.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to put snapshot to S3: %w", err)
	}
	return nil
}

func (t *S3Target) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.objectKey(key)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%s: %w", key, ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to get snapshot from S3: %w", err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot body: %w", err)
	}
	return data, nil
}
