package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretStore fetches named secret material (encryption keys) at call time.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// StaticSecretStore serves secrets from a fixed map. Used for local
// development (values sourced from env) and in tests.
type StaticSecretStore struct {
	values map[string]string
}

// NewStaticSecretStore creates a map-backed secret store.
func NewStaticSecretStore(values map[string]string) *StaticSecretStore {
	return &StaticSecretStore{values: values}
}

func (s *StaticSecretStore) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := s.values[name]
	if !ok || v == "" {
		return "", fmt.Errorf("report: secret %q not configured", name)
	}
	return v, nil
}

type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretStore reads secrets from AWS Secrets Manager.
type AWSSecretStore struct {
	api secretsManagerAPI
}

// NewAWSSecretStore creates a Secrets Manager backed store.
func NewAWSSecretStore(api secretsManagerAPI) *AWSSecretStore {
	if api == nil {
		panic("report: secrets manager client cannot be nil")
	}
	return &AWSSecretStore{api: api}
}

func (s *AWSSecretStore) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("report: secrets manager get %q: %w", name, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("report: secret %q has no string value", name)
	}
	return *out.SecretString, nil
}

type cachedSecret struct {
	value     string
	fetchedAt time.Time
}

// CachedSecretStore wraps another store with an in-process TTL cache, keeping
// the hot path off the secrets backend. The cache is process-local on
// purpose: key material never transits shared infrastructure like Redis.
type CachedSecretStore struct {
	inner SecretStore
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]cachedSecret
	now     func() time.Time
}

// NewCachedSecretStore wraps inner with a TTL cache.
func NewCachedSecretStore(inner SecretStore, ttl time.Duration) *CachedSecretStore {
	if inner == nil {
		panic("report: cached secret store requires an inner store")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSecretStore{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]cachedSecret),
		now:     time.Now,
	}
}

func (c *CachedSecretStore) GetSecret(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	entry, ok := c.entries[name]
	fresh := ok && c.now().Sub(entry.fetchedAt) < c.ttl
	c.mu.Unlock()
	if fresh {
		return entry.value, nil
	}

	value, err := c.inner.GetSecret(ctx, name)
	if err != nil {
		// A stale cached value is better than no key at all when the
		// backend is briefly unreachable.
		if ok {
			return entry.value, nil
		}
		return "", err
	}

	c.mu.Lock()
	c.entries[name] = cachedSecret{value: value, fetchedAt: c.now()}
	c.mu.Unlock()
	return value, nil
}

// Invalidate drops a cached entry, forcing the next read to hit the backend.
func (c *CachedSecretStore) Invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}

var _ SecretStore = (*StaticSecretStore)(nil)
var _ SecretStore = (*AWSSecretStore)(nil)
var _ SecretStore = (*CachedSecretStore)(nil)
