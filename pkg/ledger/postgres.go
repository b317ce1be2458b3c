package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flowforge/flowforge/pkg/models"
	_ "github.com/lib/pq" // postgres driver
)

// Postgres is the production Ledger backed by a keyed table. Expired rows
// are filtered on read and lazily deleted on write.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres connects to the database, verifies the connection and ensures
// the ledger table exists.
func NewPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*Postgres, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pg := &Postgres{
		db:     database,
		logger: logger.With("module", "ledger", "backend", "postgres"),
	}

	if err := pg.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run ledger migrations: %w", err)
	}

	return pg, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS memory_entries (
			key         TEXT PRIMARY KEY,
			entry_type  TEXT NOT NULL,
			payload     JSONB,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			expires_at  TIMESTAMPTZ NOT NULL
		)`)

	return err
}

func (p *Postgres) Record(ctx context.Context, key string, entryType models.MemoryEntryType, payload map[string]any, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}

	if ttl <= 0 {
		ttl = models.DefaultMemoryTTL
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode ledger payload: %w", err)
	}

	now := time.Now()

	// Upsert keeps replace-by-key atomic; expired siblings are cleaned up
	// opportunistically so the table stays bounded without a sweeper.
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO memory_entries (key, entry_type, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			entry_type = EXCLUDED.entry_type,
			payload    = EXCLUDED.payload,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`,
		key, string(entryType), encoded, now, now.Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to write ledger entry %q: %w", key, err)
	}

	if _, err := p.db.ExecContext(ctx, `DELETE FROM memory_entries WHERE expires_at < now()`); err != nil {
		p.logger.WarnContext(ctx, "Failed to prune expired ledger entries", "error", err)
	}

	return nil
}

func (p *Postgres) Query(ctx context.Context, pattern string, opts QueryOptions) ([]*models.MemoryEntry, error) {
	query := `
		SELECT key, entry_type, payload, created_at, expires_at
		FROM memory_entries
		WHERE key LIKE $1 AND expires_at > now()`
	args := []any{globToLike(pattern)}

	if opts.Type != "" {
		args = append(args, string(opts.Type))
		query += fmt.Sprintf(" AND entry_type = $%d", len(args))
	}

	if opts.MaxAge > 0 {
		args = append(args, time.Now().Add(-opts.MaxAge))
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}

	query += " ORDER BY created_at DESC, key ASC"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.MemoryEntry, 0)

	for rows.Next() {
		var (
			entry     models.MemoryEntry
			entryType string
			payload   []byte
			expiresAt time.Time
		)

		if err := rows.Scan(&entry.Key, &entryType, &payload, &entry.CreatedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		entry.Type = models.MemoryEntryType(entryType)
		entry.TTL = expiresAt.Sub(entry.CreatedAt)

		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &entry.Payload); err != nil {
				p.logger.WarnContext(ctx, "Skipping undecodable ledger payload", "key", entry.Key, "error", err)

				continue
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// globToLike converts the ledger's glob patterns to SQL LIKE patterns.
func globToLike(pattern string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"%", `\%`,
		"_", `\_`,
		"*", "%",
		"?", "_",
	)

	return replacer.Replace(pattern)
}
