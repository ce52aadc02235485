package helpers

import (
	"context"

	"github.com/m3rciful/tosbook/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxKey = "tosbook.ctx"

// RIDKey is where the logging middleware stores the request id.
const RIDKey = "rid"

// StoreContext caches ctx on the update so later helpers reuse the same
// request id and logger.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(ctxKey, ctx)
}

// ContextFrom returns the context cached by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// ParticipantID identifies whose booking an update belongs to. Private chats
// and groups alike are keyed by the sender.
func ParticipantID(c tele.Context) (int64, bool) {
	if u := c.Sender(); u != nil {
		return u.ID, true
	}
	return 0, false
}

// ChatID returns the chat replies go to, falling back to the sender for
// updates that carry no chat (inline callbacks).
func ChatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	id, _ := ParticipantID(c)
	return id
}

// BuildContext returns the logging context of the update, creating and
// caching it on first use.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	updateID := c.Update().ID
	userID, _ := ParticipantID(c)
	chatID := ChatID(c)

	rid, _ := c.Get(RIDKey).(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component(logger.CompTG))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the cached context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" {
		ctx = logger.WithHandler(ctx, handler)
		StoreContext(c, ctx)
	}
	return ctx
}
