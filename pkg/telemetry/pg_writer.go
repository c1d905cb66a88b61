package telemetry

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGWriter stores telemetry batches in Postgres using the COPY
// protocol, the cheapest path for append-only inserts.
type PGWriter struct {
	pool *pgxpool.Pool
}

// NewPGWriter creates a Postgres batch writer for telemetry entries.
func NewPGWriter(pool *pgxpool.Pool) *PGWriter {
	return &PGWriter{pool: pool}
}

func (w *PGWriter) WriteBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			meta = []byte("{}")
		}
		rows = append(rows, []any{
			e.ID, e.TenantID, e.Provider, e.Action, string(e.Status),
			e.LatencyMS, e.ErrorMessage, meta, e.CreatedAt,
		})
	}

	_, err := w.pool.CopyFrom(ctx,
		pgx.Identifier{"telemetry_entries"},
		[]string{"id", "tenant_id", "provider", "action", "status", "latency_ms", "error_message", "metadata", "created_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}
