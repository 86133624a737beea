package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/blob"
	blobfs "github.com/marmos91/dittodrive/pkg/store/blob/fs"
	blobmemory "github.com/marmos91/dittodrive/pkg/store/blob/memory"
	blobs3 "github.com/marmos91/dittodrive/pkg/store/blob/s3"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
	metadatabadger "github.com/marmos91/dittodrive/pkg/store/metadata/badger"
	metadatamemory "github.com/marmos91/dittodrive/pkg/store/metadata/memory"
)

// s3YAMLConfig represents S3 configuration loaded from YAML files.
type s3YAMLConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// badgerYAMLConfig represents BadgerDB configuration loaded from YAML files.
type badgerYAMLConfig struct {
	DBPath           string `mapstructure:"db_path"`
	BlockCacheSizeMB int64  `mapstructure:"block_cache_size_mb"`
}

// CreateMetadataStore creates a metadata store based on configuration.
//
// The Type field selects the implementation; the matching type-specific map
// is decoded and passed to the store's constructor.
//
// Supported types:
//   - "memory": in-memory storage, ephemeral (tests and development)
//   - "badger": BadgerDB storage, persistent
func CreateMetadataStore(ctx context.Context, cfg MetadataConfig) (metadata.Store, error) {
	switch cfg.Type {
	case "memory":
		return metadatamemory.NewMemoryStore(), nil
	case "badger":
		var badgerCfg badgerYAMLConfig
		if err := mapstructure.Decode(cfg.Badger, &badgerCfg); err != nil {
			return nil, fmt.Errorf("invalid badger config: %w", err)
		}

		store, err := metadatabadger.NewBadgerStore(ctx, metadatabadger.Config{
			DBPath:           badgerCfg.DBPath,
			BlockCacheSizeMB: badgerCfg.BlockCacheSizeMB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open badger database: %w", err)
		}

		logger.Info("Badger metadata store initialized: path=%s", badgerCfg.DBPath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q", cfg.Type)
	}
}

// CreateBlobStore creates a blob store based on configuration.
//
// Supported types:
//   - "filesystem": one file per blob under a base directory
//   - "memory": in-memory storage, ephemeral
//   - "s3": Amazon S3 or compatible endpoint (MinIO, Localstack)
func CreateBlobStore(ctx context.Context, cfg BlobConfig) (blob.Store, error) {
	switch cfg.Type {
	case "memory":
		return blobmemory.NewMemoryBlobStore(), nil
	case "filesystem":
		var fsCfg struct {
			Path string `mapstructure:"path"`
		}
		if err := mapstructure.Decode(cfg.Filesystem, &fsCfg); err != nil {
			return nil, fmt.Errorf("invalid filesystem config: %w", err)
		}
		if fsCfg.Path == "" {
			return nil, fmt.Errorf("filesystem path is required")
		}

		store, err := blobfs.NewFSBlobStore(ctx, fsCfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize filesystem store: %w", err)
		}

		logger.Info("Filesystem blob store initialized: path=%s", fsCfg.Path)
		return store, nil
	case "s3":
		return createS3BlobStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob store type: %q", cfg.Type)
	}
}

// createS3BlobStore builds the AWS client and wraps it in an S3 blob store.
func createS3BlobStore(ctx context.Context, cfg BlobConfig) (blob.Store, error) {
	var storeCfg s3YAMLConfig
	if err := mapstructure.Decode(cfg.S3, &storeCfg); err != nil {
		return nil, fmt.Errorf("invalid S3 config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(storeCfg.Region),
	}

	// Custom endpoint for S3-compatible services
	if storeCfg.Endpoint != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               storeCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default credential chain
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awsS3.NewFromConfig(awsCfg, func(o *awsS3.Options) {
		// Path-style addressing for compatibility with MinIO/Localstack
		if storeCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	store, err := blobs3.NewS3BlobStore(ctx, blobs3.S3BlobStoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 blob store: %w", err)
	}

	logger.Info("S3 blob store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}
