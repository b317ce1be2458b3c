package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/flowforge/flowforge/pkg/ledger"
)

// NewLedger builds a coordination ledger from a URL. redis:// and
// postgres:// select the production backends; an empty URL falls back to the
// bounded in-memory ledger with its sweeper started.
func NewLedger(ctx context.Context, ledgerURL string, logger *slog.Logger) (ledger.Ledger, error) {
	switch {
	case strings.HasPrefix(ledgerURL, "redis://"), strings.HasPrefix(ledgerURL, "rediss://"):
		return ledger.NewRedis(ctx, ledgerURL, logger)
	case strings.HasPrefix(ledgerURL, "postgres://"), strings.HasPrefix(ledgerURL, "postgresql://"):
		return ledger.NewPostgres(ctx, ledgerURL, logger)
	default:
		memory := ledger.NewMemory(0, logger)
		if err := memory.StartSweeper(""); err != nil {
			return nil, err
		}

		return memory, nil
	}
}
