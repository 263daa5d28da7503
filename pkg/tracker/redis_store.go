package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dispatchlab/notifykit/pkg/notification"
)

// RedisConfig describes the connection to a Redis server backing the ledger.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// ConnectRedis establishes a Redis connection with retries, so a ledger
// backed by Redis can outlast a database restarting underneath it at boot.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisURL, err)
	}

	for attempt := 0; attempt < cfg.RetryAttempts; attempt++ {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// RedisStore persists delivery records as JSON values in Redis, making the
// ledger survive process restarts. Per-key serialization still comes from the
// Tracker, so the durability guarantee is per-process, matching the memory
// store's contract.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default "notifykit:delivery:" key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// WithRecordTTL sets an expiry on stored records. Zero (the default) keeps
// records until an explicit ClearOldRecords sweep, mirroring MemoryStore.
func WithRecordTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore creates a Redis-backed Store on top of an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: "notifykit:delivery:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(notificationID string, channel notification.ChannelType) string {
	return s.keyPrefix + notificationID + ":" + string(channel)
}

func (s *RedisStore) Get(ctx context.Context, notificationID string, channel notification.ChannelType) (Record, bool, error) {
	data, err := s.client.Get(ctx, s.key(notificationID, channel)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to read delivery record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("failed to decode delivery record: %w", err)
	}
	return rec, true, nil
}

func (s *RedisStore) Put(ctx context.Context, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode delivery record: %w", err)
	}

	if err := s.client.Set(ctx, s.key(record.NotificationID, record.Channel), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write delivery record: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, notificationID string, channel notification.ChannelType) error {
	if err := s.client.Del(ctx, s.key(notificationID, channel)).Err(); err != nil {
		return fmt.Errorf("failed to delete delivery record: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	var (
		out    []Record
		cursor uint64
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery records: %w", err)
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				// Expired between SCAN and GET.
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read delivery record: %w", err)
			}

			var rec Record
			if err := json.Unmarshal(data, &rec); err != nil {
				return nil, fmt.Errorf("failed to decode delivery record: %w", err)
			}
			out = append(out, rec)
		}

		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}
