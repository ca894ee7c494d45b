// Package recurring materializes due recurring transactions on a schedule.
package recurring

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dlitvinov/finledger/internal/ledger"
	"github.com/dlitvinov/finledger/internal/store"
)

const batchSize = 100

// Scanner finds recurring transactions whose next occurrence is due and
// inserts the next instance through the ledger engine, so every
// materialization carries its balance adjustment atomically.
type Scanner struct {
	store  store.Ledger
	engine *ledger.Service
	log    zerolog.Logger
}

func NewScanner(st store.Ledger, engine *ledger.Service, log zerolog.Logger) *Scanner {
	return &Scanner{store: st, engine: engine, log: log}
}

// ScanOnce materializes everything due as of now. A transaction due more
// than once (e.g. after downtime) is caught up one occurrence per scan. One
// failing transaction does not stop the batch.
func (s *Scanner) ScanOnce(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.DueRecurring(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	materialized := 0
	for i := range due {
		src := &due[i]
		inst, err := s.engine.MaterializeRecurring(ctx, src.UserID, src.ID, now)
		if err != nil {
			// Validation here means another scanner instance got there
			// first; anything else is worth a log line.
			if !ledger.IsKind(err, ledger.KindValidation) {
				s.log.Error().Err(err).
					Str("transaction_id", src.ID).
					Msg("Failed to materialize recurring transaction")
			}
			continue
		}
		materialized++
		s.log.Info().
			Str("source_id", src.ID).
			Str("instance_id", inst.ID).
			Str("date", inst.Date.Format("2006-01-02")).
			Msg("Materialized recurring transaction")
	}
	return materialized, nil
}

// Run scans on a fixed interval until the context is cancelled.
func (s *Scanner) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.ScanOnce(ctx, time.Now().UTC()); err != nil {
				s.log.Error().Err(err).Msg("Recurring scan failed")
			} else if n > 0 {
				s.log.Info().Int("materialized", n).Msg("Recurring scan complete")
			}
		}
	}
}
