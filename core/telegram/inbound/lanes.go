// Package inbound runs update handlers on per-participant lanes.
//
// The bot must be built with tele.Settings.Synchronous and Lanes.Middleware
// must be the first middleware: updates are then handed to the lanes in the
// order they were received, and each lane runs its updates one by one.
package inbound

import (
	"errors"
	"fmt"
	"sync"

	tghelpers "github.com/m3rciful/tosbook/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ErrClosed is returned when an update arrives after Close.
var ErrClosed = errors.New("telegram inbound: lanes closed")

// Options controls the lanes.
type Options struct {
	Workers   int
	QueueSize int
	// OnError receives handler errors and recovered panics.
	OnError func(error, tele.Context)
}

type task struct {
	c    tele.Context
	next tele.HandlerFunc
}

// Lanes executes handlers on workers sharded by participant id, so updates
// of one participant run in arrival order while different participants
// proceed in parallel.
type Lanes struct {
	opts   Options
	shards []chan task
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts the lane workers.
func New(opts Options) *Lanes {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 512
	}
	if opts.OnError == nil {
		opts.OnError = func(error, tele.Context) {}
	}

	perShard := opts.QueueSize / opts.Workers
	if perShard < 1 {
		perShard = 1
	}
	l := &Lanes{opts: opts, shards: make([]chan task, opts.Workers)}
	l.wg.Add(opts.Workers)
	for i := range l.shards {
		l.shards[i] = make(chan task, perShard)
		go l.worker(l.shards[i])
	}
	return l
}

// Middleware hands the rest of the chain to the lane of the update's
// participant. A full lane blocks the caller; after Close the chain runs
// inline.
func (l *Lanes) Middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if err := l.enqueue(laneKey(c), task{c: c, next: next}); err != nil {
			return next(c)
		}
		return nil
	}
}

func laneKey(c tele.Context) int64 {
	if id, ok := tghelpers.ParticipantID(c); ok {
		return id
	}
	return tghelpers.ChatID(c)
}

func (l *Lanes) enqueue(key int64, t task) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	l.shard(key) <- t
	return nil
}

func (l *Lanes) shard(key int64) chan task {
	n := int64(len(l.shards))
	i := key % n
	if i < 0 {
		i += n
	}
	return l.shards[i]
}

// Close stops accepting updates and waits for the queued ones to finish.
func (l *Lanes) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	for _, ch := range l.shards {
		close(ch)
	}
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *Lanes) worker(tasks <-chan task) {
	defer l.wg.Done()
	for t := range tasks {
		if err := l.run(t); err != nil {
			l.opts.OnError(err, t.c)
		}
	}
}

func (l *Lanes) run(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("telegram inbound: handler panic: %v", r)
		}
	}()
	return t.next(t.c)
}
