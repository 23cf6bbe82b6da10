package snapshot

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittoreg/pkg/store/record/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects in memory and answers like the S3 client.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestFileTarget(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "snapshots")

	target, err := NewFileTarget(FileTargetConfig{Dir: dir})
	require.NoError(t, err)

	require.NoError(t, target.Put(ctx, "a.json", []byte("one")))
	require.NoError(t, target.Put(ctx, "a.json", []byte("two")))

	data, err := target.Get(ctx, "a.json")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	_, err = target.Get(ctx, "missing.json")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	abs := filepath.Join(t.TempDir(), "elsewhere.yaml")
	require.NoError(t, os.WriteFile(abs, []byte("x"), 0644))
	data, err = target.Get(ctx, abs)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.Equal(t, abs, target.Describe(abs))
}

func TestFileTarget_RequiresDir(t *testing.T) {
	_, err := NewFileTarget(FileTargetConfig{})
	assert.Error(t, err)
}

func TestS3Target(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()

	target, err := NewS3Target(S3TargetConfig{Client: client, Bucket: "backups", KeyPrefix: "dittoreg/"})
	require.NoError(t, err)

	require.NoError(t, target.Put(ctx, "s.xdr", []byte("payload")))
	assert.Contains(t, client.objects, "backups/dittoreg/s.xdr")

	data, err := target.Get(ctx, "s.xdr")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	data, err = target.Get(ctx, "dittoreg/s.xdr")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = target.Get(ctx, "missing.xdr")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	assert.Equal(t, "s3://backups/dittoreg/s.xdr", target.Describe("s.xdr"))
}

func TestNewS3Target_Validation(t *testing.T) {
	_, err := NewS3Target(S3TargetConfig{Bucket: "b"})
	assert.Error(t, err)

	_, err = NewS3Target(S3TargetConfig{Client: newFakeS3()})
	assert.Error(t, err)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	source := seededStore(t)
	want, err := Capture(ctx, source)
	require.NoError(t, err)

	targets := map[string]Target{}
	fileTarget, err := NewFileTarget(FileTargetConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	targets["file"] = fileTarget
	s3Target, err := NewS3Target(S3TargetConfig{Client: newFakeS3(), Bucket: "backups"})
	require.NoError(t, err)
	targets["s3"] = s3Target

	for name, target := range targets {
		for _, format := range Formats() {
			t.Run(name+"/"+string(format), func(t *testing.T) {
				codec, err := CodecFor(format)
				require.NoError(t, err)

				key, err := Export(ctx, source, codec, target)
				require.NoError(t, err)
				assert.True(t, strings.HasSuffix(key, "."+string(format)))

				dst := memory.NewMemoryRecordStoreWithDefaults()
				got, err := Import(ctx, dst, target, key)
				require.NoError(t, err)
				requireSameState(t, want, got)

				restored, err := Capture(ctx, dst)
				require.NoError(t, err)
				requireSameState(t, want, restored)
			})
		}
	}
}

func TestNewKey_Unique(t *testing.T) {
	a, b := NewKey(FormatJSON), NewKey(FormatJSON)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "dittoreg-"))
}
