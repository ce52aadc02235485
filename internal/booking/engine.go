package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/tosbook/core/logger"
	"github.com/m3rciful/tosbook/core/telegram/state"
)

// Dispatcher delivers a confirmed booking to the external receiver exactly once.
type Dispatcher interface {
	Dispatch(ctx context.Context, sessionID int64, rec Record) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, sessionID int64, rec Record) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, sessionID int64, rec Record) error {
	return f(ctx, sessionID, rec)
}

// EngineOptions wires the engine collaborators. Zero values get in-memory defaults.
type EngineOptions struct {
	Store      state.Manager[Session]
	Dialog     *Dialog
	Dispatcher Dispatcher
}

// Engine runs the dialog for many participants. Events of one participant are
// applied one at a time; different participants proceed independently.
type Engine struct {
	store      state.Manager[Session]
	dialog     *Dialog
	dispatcher Dispatcher
	inflight   sync.WaitGroup
}

// NewEngine constructs an Engine.
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{
		store:      opts.Store,
		dialog:     opts.Dialog,
		dispatcher: opts.Dispatcher,
	}
	if e.store == nil {
		e.store = state.NewMemoryManager[Session]()
	}
	if e.dialog == nil {
		e.dialog = NewDialog(nil)
	}
	if e.dispatcher == nil {
		e.dispatcher = DispatcherFunc(func(context.Context, int64, Record) error {
			return fmt.Errorf("booking: no dispatcher configured")
		})
	}
	return e
}

// Handle applies ev for the participant and returns the replies to send,
// including the acknowledgement of a delivery it had to wait for.
// Errors never escape: they are turned into replies and logged.
func (e *Engine) Handle(ctx context.Context, sessionID int64, ev Event) []Reply {
	replies, pending := e.apply(ctx, sessionID, ev)
	if pending == nil {
		return replies
	}
	return append(replies, pending()...)
}

// Submit applies ev like Handle but runs a delivery in the background and
// passes its acknowledgement to done. The caller is free to submit further
// events of the same participant while the delivery is in flight.
func (e *Engine) Submit(ctx context.Context, sessionID int64, ev Event, done func([]Reply)) []Reply {
	replies, pending := e.apply(ctx, sessionID, ev)
	if pending != nil {
		e.inflight.Add(1)
		go func() {
			defer e.inflight.Done()
			done(pending())
		}()
	}
	return replies
}

// Wait blocks until every delivery started by Submit has been acknowledged.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// apply runs the transition under the participant lock. When the event
// confirms a booking it returns the delivery still to be made; the lock is
// not held while it runs so cancel and restart stay immediate.
func (e *Engine) apply(ctx context.Context, sessionID int64, ev Event) ([]Reply, func() []Reply) {
	var (
		from  state.State
		out   Outcome
		token string
		fault error
	)
	e.store.Update(sessionID, func(cur *Session) *Session {
		from = stateOf(cur)
		out, fault = e.transition(sessionID, cur, ev)
		if out.Next != nil {
			token = out.Next.Token
		}
		return out.Next
	})
	if fault != nil {
		logger.Error(ctx, logger.CompBooking, "dialog.transition",
			slog.String("status", "fail"),
			slog.String("op", ev.Kind.String()),
			slog.String("state", string(from)),
			slog.String("err", fault.Error()),
		)
		return out.Replies, nil
	}
	e.logTransition(ctx, ev, from, out)

	if out.Dispatch == nil {
		return out.Replies, nil
	}
	rec := *out.Dispatch
	return out.Replies, func() []Reply {
		return e.deliver(ctx, sessionID, token, rec)
	}
}

// transition keeps the session as it was when the dialog panics.
func (e *Engine) transition(sessionID int64, cur *Session, ev Event) (out Outcome, fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = fmt.Errorf("booking: transition panic: %v", r)
			out = unchanged(cur, MsgFallback)
		}
	}()
	return e.dialog.Transition(sessionID, cur, ev), nil
}

func (e *Engine) deliver(ctx context.Context, sessionID int64, token string, rec Record) []Reply {
	err := e.dispatch(ctx, sessionID, rec)

	var fin Outcome
	e.store.Update(sessionID, func(cur *Session) *Session {
		fin = e.dialog.Finish(cur, token, err)
		return fin.Next
	})

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("state", string(fin.To)),
		slog.Bool("superseded", fin.To != StateEnd),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Warn(ctx, logger.CompBooking, "dialog.dispatch", attrs...)
	} else {
		logger.Info(ctx, logger.CompBooking, "dialog.dispatch", attrs...)
	}
	return fin.Replies
}

func (e *Engine) dispatch(ctx context.Context, sessionID int64, rec Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("booking: dispatcher panic: %v", r)
		}
	}()
	return e.dispatcher.Dispatch(ctx, sessionID, rec)
}

// Session returns a snapshot of the participant's session.
func (e *Engine) Session(sessionID int64) (Session, bool) {
	return e.store.Get(sessionID)
}

// ActiveSessions returns the number of participants with an open booking.
func (e *Engine) ActiveSessions() int {
	return e.store.Len()
}

func (e *Engine) logTransition(ctx context.Context, ev Event, from state.State, out Outcome) {
	if out.Rejected != "" {
		logger.Info(ctx, logger.CompBooking, "dialog.rejected",
			slog.String("state", string(from)),
			slog.String("reason", string(out.Rejected)),
		)
		return
	}
	logger.Debug(ctx, logger.CompBooking, "dialog.transition",
		slog.String("op", ev.Kind.String()),
		slog.String("state", string(from)),
		slog.String("next_state", string(out.To)),
	)
}

func stateOf(s *Session) state.State {
	if s == nil {
		return state.StateIdle
	}
	return s.State
}
