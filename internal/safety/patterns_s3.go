package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/storeassist/safety-platform/pkg/logging"
)

// S3API is the subset of the S3 client used by S3PatternSource.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3PatternSource loads a versioned PatternConfig from S3 so pattern updates
// ship without a deploy. If the bucket is empty or the fetch fails, Load
// falls back to the built-in library.
type S3PatternSource struct {
	client S3API
	bucket string
	key    string
	logger *logging.Logger
}

// NewS3PatternSource creates a pattern source. An empty bucket disables S3
// loading entirely.
func NewS3PatternSource(client S3API, bucket, key string, logger *logging.Logger) *S3PatternSource {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3PatternSource{client: client, bucket: bucket, key: key, logger: logger}
}

// Load fetches, parses and compiles the pattern config. Any failure returns
// the built-in default library; classification must never be left without
// patterns because an S3 read failed.
func (s *S3PatternSource) Load(ctx context.Context) *PatternLibrary {
	if s == nil || s.bucket == "" || s.client == nil {
		return DefaultPatternLibrary()
	}

	lib, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("pattern config fetch failed, using built-in library",
			"bucket", s.bucket, "key", s.key, "error", err)
		return DefaultPatternLibrary()
	}

	s.logger.Info("loaded pattern library", "version", lib.Version(), "bucket", s.bucket, "key", s.key)
	return lib
}

func (s *S3PatternSource) fetch(ctx context.Context) (*PatternLibrary, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("safety: s3 get %s/%s: %w", s.bucket, s.key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("safety: read pattern config body: %w", err)
	}

	var cfg PatternConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("safety: parse pattern config: %w", err)
	}

	return LoadPatternLibrary(cfg)
}
