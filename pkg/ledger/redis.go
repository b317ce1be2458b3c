package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowforge/flowforge/pkg/models"
	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "flowforge:ledger:"

// Redis is the production Ledger backed by a shared Redis instance. Expiry
// is delegated to Redis TTLs, so no sweeper is needed.
type Redis struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewRedis connects to the given redis URL (redis://...) and verifies the
// connection.
func NewRedis(ctx context.Context, redisURL string, logger *slog.Logger) (*Redis, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Redis{
		client: client,
		logger: logger.With("module", "ledger", "backend", "redis"),
	}, nil
}

func (r *Redis) Record(ctx context.Context, key string, entryType models.MemoryEntryType, payload map[string]any, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}

	if ttl <= 0 {
		ttl = models.DefaultMemoryTTL
	}

	entry := &models.MemoryEntry{
		Key:       key,
		Type:      entryType,
		Payload:   payload,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry: %w", err)
	}

	// A single SET is the atomic replace-by-key the ledger contract needs.
	if err := r.client.Set(ctx, redisKeyPrefix+key, encoded, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write ledger entry %q: %w", key, err)
	}

	return nil
}

func (r *Redis) Query(ctx context.Context, pattern string, opts QueryOptions) ([]*models.MemoryEntry, error) {
	now := time.Now()
	matches := make([]*models.MemoryEntry, 0)

	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, redisKeyPrefix+pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger keys: %w", err)
		}

		for _, key := range keys {
			raw, err := r.client.Get(ctx, key).Result()
			if err == redis.Nil {
				continue // expired between SCAN and GET
			}

			if err != nil {
				return nil, fmt.Errorf("failed to read ledger entry %q: %w", key, err)
			}

			var entry models.MemoryEntry
			if err := json.Unmarshal([]byte(raw), &entry); err != nil {
				r.logger.WarnContext(ctx, "Skipping undecodable ledger entry", "key", key, "error", err)

				continue
			}

			if matchesOptions(&entry, opts, now) {
				matches = append(matches, &entry)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	sortRecentFirst(matches)

	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	return matches, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
