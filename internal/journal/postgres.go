package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const recordTimeout = 3 * time.Second

const insertEntry = `
INSERT INTO receipt_deliveries
	(delivery_id, session_id, status, err_kind, http_code, duration_ms, created_at)
VALUES
	(:delivery_id, :session_id, :status, :err_kind, :http_code, :duration_ms, :created_at)`

// Postgres stores entries in the receipt_deliveries table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres returns a Journal backed by db.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Record implements Journal.
func (p *Postgres) Record(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()
	if _, err := p.db.NamedExecContext(ctx, insertEntry, e); err != nil {
		return fmt.Errorf("journal: insert delivery %s: %w", e.DeliveryID, err)
	}
	return nil
}

// Stats summarizes recorded deliveries.
type Stats struct {
	Total  int `db:"total"`
	Failed int `db:"failed"`
}

// Stats counts all recorded deliveries and the failed ones.
func (p *Postgres) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := p.db.GetContext(ctx, &s, `
SELECT count(*) AS total, count(*) FILTER (WHERE status = 'fail') AS failed
FROM receipt_deliveries`)
	if err != nil {
		return Stats{}, fmt.Errorf("journal: stats: %w", err)
	}
	return s, nil
}
