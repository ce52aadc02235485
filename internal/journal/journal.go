// Package journal keeps an audit trail of receipt deliveries. Only delivery
// metadata is stored, never the booking fields.
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/tosbook/core/logger"
	"github.com/m3rciful/tosbook/core/telegram/netutil"
	"github.com/m3rciful/tosbook/internal/booking"
	"github.com/m3rciful/tosbook/internal/receipt"
)

// Entry describes one delivery attempt.
type Entry struct {
	DeliveryID string    `db:"delivery_id"`
	SessionID  int64     `db:"session_id"`
	Status     string    `db:"status"`
	ErrKind    string    `db:"err_kind"`
	HTTPCode   int       `db:"http_code"`
	DurationMS int64     `db:"duration_ms"`
	CreatedAt  time.Time `db:"created_at"`
}

// Journal persists delivery entries.
type Journal interface {
	Record(ctx context.Context, e Entry) error
}

// Nop discards entries.
type Nop struct{}

// Record implements Journal.
func (Nop) Record(context.Context, Entry) error { return nil }

// Recording wraps next so every delivery attempt is written to j. Journal
// failures are logged and never change the dispatch result.
func Recording(next booking.Dispatcher, j Journal) booking.Dispatcher {
	return &recorder{next: next, journal: j, newID: uuid.NewString, now: time.Now}
}

type recorder struct {
	next    booking.Dispatcher
	journal Journal
	newID   func() string
	now     func() time.Time
}

func (r *recorder) Dispatch(ctx context.Context, sessionID int64, rec booking.Record) error {
	id := r.newID()
	start := r.now()
	err := r.next.Dispatch(receipt.WithDeliveryID(ctx, id), sessionID, rec)

	e := Entry{
		DeliveryID: id,
		SessionID:  sessionID,
		Status:     logger.Status(err),
		ErrKind:    netutil.Classify(err),
		HTTPCode:   netutil.StatusFromError(err),
		DurationMS: r.now().Sub(start).Milliseconds(),
		CreatedAt:  start.UTC(),
	}
	if jerr := r.journal.Record(context.WithoutCancel(ctx), e); jerr != nil {
		logger.Warn(ctx, logger.CompJournal, "journal.record",
			slog.String("status", "fail"),
			slog.String("delivery_id", id),
			slog.String("err", jerr.Error()),
		)
	}
	return err
}
