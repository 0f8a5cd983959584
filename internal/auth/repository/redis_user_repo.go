package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

const (
	entryKeyPrefix = "directory:user:" // JSON entry: directory:user:{uid}
	entryIndexKey  = "directory:users" // set of every uid with an entry
	maxWatchRetry  = 5
)

// RedisUserRepository stores one JSON document per uid plus an index set.
type RedisUserRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisUserRepository(client *redis.Client) *RedisUserRepository {
	return &RedisUserRepository{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *RedisUserRepository) entryKey(uid string) string {
	return entryKeyPrefix + uid
}

// Upsert reads, merges and writes under WATCH so concurrent writers to the
// same uid do not lose fields.
func (r *RedisUserRepository) Upsert(ctx context.Context, uid string, u domain.EntryUpdate) error {
	key := r.entryKey(uid)

	txf := func(tx *redis.Tx) error {
		entry := domain.DirectoryEntry{UID: uid}
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(data, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal directory entry: %w", err)
			}
		}

		u.Apply(&entry, r.now())
		entry.UID = uid

		payload, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal directory entry: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, entryIndexKey, uid)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetry; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to upsert directory entry: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to upsert directory entry: too much contention on %s", uid)
}

func (r *RedisUserRepository) Get(ctx context.Context, uid string) (*domain.DirectoryEntry, error) {
	data, err := r.client.Get(ctx, r.entryKey(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get directory entry: %w", err)
	}

	var entry domain.DirectoryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal directory entry: %w", err)
	}
	entry.UID = uid
	return &entry, nil
}

func (r *RedisUserRepository) ListAll(ctx context.Context) ([]domain.DirectoryEntry, error) {
	uids, err := r.client.SMembers(ctx, entryIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list directory index: %w", err)
	}
	if len(uids) == 0 {
		return []domain.DirectoryEntry{}, nil
	}

	keys := make([]string, len(uids))
	for i, uid := range uids {
		keys[i] = r.entryKey(uid)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load directory entries: %w", err)
	}

	out := make([]domain.DirectoryEntry, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// index points at a missing key
			continue
		}
		var entry domain.DirectoryEntry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal directory entry %s: %w", uids[i], err)
		}
		entry.UID = uids[i]
		out = append(out, entry)
	}
	return out, nil
}

func (r *RedisUserRepository) Delete(ctx context.Context, uid string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.entryKey(uid))
	pipe.SRem(ctx, entryIndexKey, uid)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete directory entry: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) Restore(ctx context.Context, e domain.DirectoryEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal directory entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.entryKey(e.UID), payload, 0)
	pipe.SAdd(ctx, entryIndexKey, e.UID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to restore directory entry: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
