package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lysyi3m/workwatch/app/work"
)

const (
	snapshotKeyPrefix = "item:metadata:"
	sentKey           = "channel:sent_messages"
	queueKey          = "queue:pending"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps snapshots as hashes, sent records in a single hash and
// the pending queue as a list.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Debug("Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return &RedisStore{client: client}, nil
}

func snapshotKey(id string) string {
	return snapshotKeyPrefix + id
}

func (s *RedisStore) GetSnapshot(ctx context.Context, id string) (*work.Snapshot, error) {
	hash, err := s.client.HGetAll(ctx, snapshotKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", id, err)
	}
	if len(hash) == 0 {
		return nil, nil
	}

	snapshot, err := work.SnapshotFromHash(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	return snapshot, nil
}

func (s *RedisStore) SaveSnapshot(ctx context.Context, snapshot *work.Snapshot) error {
	key := snapshotKey(snapshot.ID)

	values := make(map[string]interface{})
	for k, v := range snapshot.ToHash() {
		values[k] = v
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snapshot.ID, err)
	}
	return nil
}

func (s *RedisStore) GetSent(ctx context.Context, id string) (*work.SentRecord, error) {
	value, err := s.client.HGet(ctx, sentKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sent record %s: %w", id, err)
	}

	record := work.ParseSentRecord(id, value)
	return &record, nil
}

func (s *RedisStore) SaveSent(ctx context.Context, record work.SentRecord) error {
	if err := s.client.HSet(ctx, sentKey, record.ID, record.Value()).Err(); err != nil {
		return fmt.Errorf("failed to save sent record %s: %w", record.ID, err)
	}
	return nil
}

func (s *RedisStore) Enqueue(ctx context.Context, id string) error {
	if err := s.client.RPush(ctx, queueKey, id).Err(); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Dequeue(ctx context.Context, timeout time.Duration) (string, bool, error) {
	if timeout <= 0 {
		id, err := s.client.LPop(ctx, queueKey).Result()
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("failed to dequeue: %w", err)
		}
		return id, true, nil
	}

	result, err := s.client.BLPop(ctx, timeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to dequeue: %w", err)
	}
	// BLPOP replies with the key name followed by the value.
	return result[1], true, nil
}

func (s *RedisStore) Length(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	iter := s.client.Scan(ctx, 0, snapshotKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		stats.Snapshots++
	}
	if err := iter.Err(); err != nil {
		return Stats{}, fmt.Errorf("failed to count snapshots: %w", err)
	}

	sent, err := s.client.HLen(ctx, sentKey).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count sent records: %w", err)
	}
	stats.Sent = sent

	queued, err := s.Length(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.Queued = queued

	return stats, nil
}

func (s *RedisStore) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	cutoff := olderThan.Format(work.DateLayout)

	var removed int64
	iter := s.client.Scan(ctx, 0, snapshotKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		updatedAt, err := s.client.HGet(ctx, key, work.KeyUpdatedAt).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if updatedAt >= cutoff {
			continue
		}

		id := key[len(snapshotKeyPrefix):]
		_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HDel(ctx, sentKey, id)
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", id, err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan snapshots: %w", err)
	}

	return removed, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
