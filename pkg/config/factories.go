package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittoreg/internal/logger"
	"github.com/marmos91/dittoreg/pkg/metrics"
	promMetrics "github.com/marmos91/dittoreg/pkg/metrics/prometheus"
	"github.com/marmos91/dittoreg/pkg/snapshot"
	"github.com/marmos91/dittoreg/pkg/store/record"
	"github.com/marmos91/dittoreg/pkg/store/record/badger"
	"github.com/marmos91/dittoreg/pkg/store/record/memory"
	"github.com/marmos91/dittoreg/pkg/store/record/sqlite"
	"github.com/mitchellh/mapstructure"
)

// CreateRecordStore creates a record store based on configuration.
//
// This factory function uses the Type field to determine which store implementation
// to create, then decodes the type-specific configuration from the corresponding
// map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/store/record/memory (in-memory storage, ephemeral)
//   - "badger": Uses pkg/store/record/badger (BadgerDB storage, persistent)
//   - "sqlite": Uses pkg/store/record/sqlite (SQLite storage, persistent)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Record store configuration
//
// Returns:
//   - record.Store: Initialized record store
//   - error: Configuration or initialization error
func CreateRecordStore(ctx context.Context, cfg *StoreConfig) (record.Store, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryRecordStore(ctx, cfg.Memory)
	case "badger":
		return createBadgerRecordStore(ctx, cfg.Badger)
	case "sqlite":
		return createSQLiteRecordStore(ctx, cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown record store type: %q (supported: memory, badger, sqlite)", cfg.Type)
	}
}

// decodeOptions decodes a type-specific option map into out, accepting
// duration strings such as "5s".
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}

// createMemoryRecordStore creates an in-memory record store.
func createMemoryRecordStore(ctx context.Context, options map[string]any) (record.Store, error) {
	// Check context before creating store
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var storeCfg memory.MemoryRecordStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("invalid memory config: %w", err)
	}

	return memory.NewMemoryRecordStore(storeCfg), nil
}

// createBadgerRecordStore creates a BadgerDB-based persistent record store.
func createBadgerRecordStore(ctx context.Context, options map[string]any) (record.Store, error) {
	// Check context before creating store
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var storeCfg badger.BadgerRecordStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger record store options: %w", err)
	}

	// Validate required fields
	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger record store: db_path is required")
	}

	store, err := badger.NewBadgerRecordStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger record store: %w", err)
	}

	return store, nil
}

// createSQLiteRecordStore creates a SQLite-based persistent record store.
func createSQLiteRecordStore(ctx context.Context, options map[string]any) (record.Store, error) {
	var storeCfg sqlite.SQLiteRecordStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode sqlite record store options: %w", err)
	}

	// Validate required fields
	if storeCfg.Path == "" {
		return nil, fmt.Errorf("sqlite record store: path is required")
	}

	store, err := sqlite.Open(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite record store: %w", err)
	}

	return store, nil
}

// CreateSnapshotTarget creates a snapshot target based on configuration.
//
// Supported targets:
//   - "file": Uses a local directory
//   - "s3": Uses Amazon S3 or compatible storage
//
// When metrics are enabled the target is wrapped so every transfer is
// reported.
func CreateSnapshotTarget(ctx context.Context, cfg *SnapshotConfig) (snapshot.Target, error) {
	var (
		target snapshot.Target
		err    error
	)

	switch cfg.Target {
	case "file":
		target, err = createFileSnapshotTarget(cfg.File)
	case "s3":
		target, err = createS3SnapshotTarget(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown snapshot target: %q (supported: file, s3)", cfg.Target)
	}
	if err != nil {
		return nil, err
	}

	if metrics.IsEnabled() {
		target = snapshot.WithMetrics(target, cfg.Target, promMetrics.NewSnapshotMetrics())
	}
	return target, nil
}

// createFileSnapshotTarget creates a local directory snapshot target.
func createFileSnapshotTarget(options map[string]any) (snapshot.Target, error) {
	var targetCfg snapshot.FileTargetConfig
	if err := decodeOptions(options, &targetCfg); err != nil {
		return nil, fmt.Errorf("failed to decode file snapshot options: %w", err)
	}

	target, err := snapshot.NewFileTarget(targetCfg)
	if err != nil {
		return nil, err
	}
	return target, nil
}

// s3TargetOptions represents S3 snapshot configuration loaded from YAML files.
type s3TargetOptions struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// createS3SnapshotTarget creates an S3-backed snapshot target.
func createS3SnapshotTarget(ctx context.Context, options map[string]any) (snapshot.Target, error) {
	var opts s3TargetOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 snapshot options: %w", err)
	}

	// Validate required fields
	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 snapshot target: bucket is required")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("S3 snapshot target: region is required")
	}

	client, err := newS3Client(ctx, opts)
	if err != nil {
		return nil, err
	}

	target, err := snapshot.NewS3Target(snapshot.S3TargetConfig{
		Client:    client,
		Bucket:    opts.Bucket,
		KeyPrefix: opts.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 snapshot target: %w", err)
	}

	logger.Debug("S3 snapshot target initialized: bucket=%s, region=%s, prefix=%s",
		opts.Bucket, opts.Region, opts.KeyPrefix)

	return target, nil
}

// newS3Client builds an S3 client from the snapshot options.
func newS3Client(ctx context.Context, opts s3TargetOptions) (*s3.Client, error) {
	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(opts.Region),
	}

	// Set credentials if provided, otherwise use default credential chain
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
			o.MaxBackoff = 10 * time.Second
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Custom endpoints (MinIO, Localstack) need path-style addressing
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
