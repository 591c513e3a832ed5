package safety

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
)

type fakeS3 struct {
	body string
	err  error
}

func (f *fakeS3) GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestS3PatternSource_LoadsConfig(t *testing.T) {
	body := `{
		"version": "s3-v7",
		"negation_window": 4,
		"thresholds": {"harm_to_others_risk": 0.6},
		"rules": [
			{"id": "harm.custom", "category": "harm_to_others_risk", "pattern": "\\bcustom threat\\b", "weight": 0.9, "severity": "high"}
		]
	}`
	source := NewS3PatternSource(&fakeS3{body: body}, "patterns-bucket", "safety/patterns/current.json", nil)

	lib := source.Load(context.Background())
	assert.Equal(t, "s3-v7", lib.Version())
	assert.Equal(t, 0.6, lib.Threshold(CategoryHarmToOthersRisk))
}

func TestS3PatternSource_FallsBackOnFetchError(t *testing.T) {
	source := NewS3PatternSource(&fakeS3{err: errors.New("access denied")}, "patterns-bucket", "key", nil)
	lib := source.Load(context.Background())
	assert.Equal(t, "builtin-v1", lib.Version())
}

func TestS3PatternSource_FallsBackOnInvalidConfig(t *testing.T) {
	source := NewS3PatternSource(&fakeS3{body: `{"version":"bad","rules":[]}`}, "patterns-bucket", "key", nil)
	lib := source.Load(context.Background())
	assert.Equal(t, "builtin-v1", lib.Version())
}

func TestS3PatternSource_DisabledWithoutBucket(t *testing.T) {
	source := NewS3PatternSource(nil, "", "key", nil)
	lib := source.Load(context.Background())
	assert.Equal(t, "builtin-v1", lib.Version())
}
