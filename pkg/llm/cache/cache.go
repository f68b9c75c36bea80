package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/llm"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "llm:completion:"

// Store is the key/value backend for cached completions.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{cache: gocache.New(defaultTTL, 10*time.Minute)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if x, found := s.cache.Get(key); found {
		return x.(string), true, nil
	}
	return "", false, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

// CachedProvider memoises completions of the wrapped provider by request
// content. Store failures are logged and fall through to the provider.
type CachedProvider struct {
	next   llm.LLMProvider
	store  Store
	ttl    time.Duration
	name   string
	logger logger.ILogger
}

var _ llm.LLMProvider = &CachedProvider{}

func NewCachedProvider(next llm.LLMProvider, store Store, name string, ttl time.Duration, log logger.ILogger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		store:  store,
		ttl:    ttl,
		name:   name,
		logger: log,
	}
}

func (c *CachedProvider) key(history []llm.Message, options llm.Options) (string, error) {
	raw, err := json.Marshal(struct {
		Provider string
		Options  llm.Options
		History  []llm.Message
	}{c.name, options, history})
	if err != nil {
		return "", fmt.Errorf("marshal cache key: %w", err)
	}
	sum := sha256.Sum256(raw)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}

func (c *CachedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(llm.Options{}, opts...)
	if options.SkipCache {
		return c.next.Chat(ctx, history, opts...)
	}

	key, err := c.key(history, options)
	if err != nil {
		return "", err
	}

	if val, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("LLMCache", "Cache read failed", map[string]interface{}{"provider": c.name, "error": err.Error()})
	} else if ok {
		c.logger.Debug("LLMCache", "Cache hit", map[string]interface{}{"provider": c.name})
		return val, nil
	}

	out, err := c.next.Chat(ctx, history, opts...)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, key, out, c.ttl); err != nil {
		c.logger.Warn("LLMCache", "Cache write failed", map[string]interface{}{"provider": c.name, "error": err.Error()})
	}
	return out, nil
}

func (c *CachedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return c.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
