package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// s3API is the subset of *s3.Client used by the loader.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader implements Loader for templates stored in an S3 bucket.
type s3Loader struct {
	client s3API
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Loader creates a loader reading templates from bucket under prefix.
func NewS3Loader(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "s3-template-loader").Logger()

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 loader initialised")

	return newS3Loader(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

func newS3Loader(client s3API, bucket, prefix string, logger zerolog.Logger) *s3Loader {
	return &s3Loader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// Load reads the object prefix+name from the bucket.
func (l *s3Loader) Load(ctx context.Context, name string) ([]byte, error) {
	key := l.prefix + name

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrTemplateNotFound, l.bucket, key)
		}
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	body, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object %s: %w", key, err)
	}

	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Int("bytes", len(body)).
		Msg("template loaded from S3")

	return body, nil
}

// fallbackLoader tries S3 first, then the local directory.
type fallbackLoader struct {
	primary  Loader
	fallback Loader
	logger   zerolog.Logger
}

// NewFallbackLoader creates a loader that consults primary and, when it
// fails for any reason, fallback.
func NewFallbackLoader(primary, fallback Loader, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With().Str("component", "fallback-loader").Logger(),
	}
}

func (l *fallbackLoader) Load(ctx context.Context, name string) ([]byte, error) {
	body, err := l.primary.Load(ctx, name)
	if err == nil {
		return body, nil
	}

	if !errors.Is(err, ErrTemplateNotFound) {
		l.logger.Warn().
			Err(err).
			Str("name", name).
			Msg("failed to load from S3, falling back to local file system")
	}

	return l.fallback.Load(ctx, name)
}
