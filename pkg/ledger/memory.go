package ledger

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/flowforge/flowforge/pkg/models"
	"github.com/robfig/cron/v3"
)

// DefaultMaxEntries bounds the in-memory ledger. When the bound is hit, the
// oldest entry is evicted first.
const DefaultMaxEntries = 1000

// Memory is the in-process Ledger used in tests and single-process
// deployments. A cron sweeper evicts expired entries in the background;
// queries additionally filter expired rows so correctness never depends on
// sweep timing.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]*models.MemoryEntry
	maxEntries int
	cron       *cron.Cron
	logger     *slog.Logger
	now        func() time.Time
}

// NewMemory builds an in-memory ledger. maxEntries <= 0 selects the default
// bound.
func NewMemory(maxEntries int, logger *slog.Logger) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Memory{
		entries:    make(map[string]*models.MemoryEntry),
		maxEntries: maxEntries,
		logger:     logger.With("module", "ledger"),
		now:        time.Now,
	}
}

// StartSweeper begins periodic eviction of expired entries.
func (m *Memory) StartSweeper(schedule string) error {
	if schedule == "" {
		schedule = "@every 1m"
	}

	runner := cron.New()

	_, err := runner.AddFunc(schedule, m.sweep)
	if err != nil {
		return err
	}

	runner.Start()
	m.cron = runner

	return nil
}

func (m *Memory) Record(_ context.Context, key string, entryType models.MemoryEntryType, payload map[string]any, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}

	if ttl <= 0 {
		ttl = models.DefaultMemoryTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = &models.MemoryEntry{
		Key:       key,
		Type:      entryType,
		Payload:   payload,
		CreatedAt: m.now(),
		TTL:       ttl,
	}

	m.evictLocked()

	return nil
}

func (m *Memory) Query(_ context.Context, pattern string, opts QueryOptions) ([]*models.MemoryEntry, error) {
	now := m.now()

	m.mu.RLock()

	matches := make([]*models.MemoryEntry, 0)

	for key, entry := range m.entries {
		if entry.Expired(now) {
			continue
		}

		if ok, err := path.Match(pattern, key); err != nil || !ok {
			continue
		}

		if !matchesOptions(entry, opts, now) {
			continue
		}

		matches = append(matches, entry)
	}

	m.mu.RUnlock()

	sortRecentFirst(matches)

	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	return matches, nil
}

func (m *Memory) Close() error {
	if m.cron != nil {
		m.cron.Stop()
	}

	return nil
}

// Len reports the current entry count, expired rows included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

func (m *Memory) sweep() {
	now := m.now()
	swept := 0

	m.mu.Lock()

	for key, entry := range m.entries {
		if entry.Expired(now) {
			delete(m.entries, key)

			swept++
		}
	}

	m.mu.Unlock()

	if swept > 0 {
		m.logger.Debug("swept expired ledger entries", "count", swept)
	}
}

// evictLocked enforces the size bound, oldest entry first. Callers hold the
// write lock.
func (m *Memory) evictLocked() {
	for len(m.entries) > m.maxEntries {
		var (
			oldestKey string
			oldestAt  time.Time
		)

		for key, entry := range m.entries {
			if oldestKey == "" || entry.CreatedAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.CreatedAt
			}
		}

		delete(m.entries, oldestKey)
	}
}

func matchesOptions(entry *models.MemoryEntry, opts QueryOptions, now time.Time) bool {
	if opts.Type != "" && entry.Type != opts.Type {
		return false
	}

	if opts.MaxAge > 0 && now.Sub(entry.CreatedAt) > opts.MaxAge {
		return false
	}

	return true
}

func sortRecentFirst(entries []*models.MemoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}

		return entries[i].Key < entries[j].Key
	})
}
