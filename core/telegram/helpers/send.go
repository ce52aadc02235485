package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/tosbook/core/logger"
	"github.com/m3rciful/tosbook/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
// With no dispatcher the helpers call Telegram inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// outgoingCounter is implemented by instrumented contexts that count the
// messages of an update.
type outgoingCounter interface {
	CountOutgoing(keyboard bool)
	Unwrap() tele.Context
}

func sendAsync(c tele.Context, action string, keyboard bool, run func(tele.Context) error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run(c)
	}

	// the job outlives the handler, so count now and send uninstrumented
	target := c
	if oc, ok := c.(outgoingCounter); ok {
		oc.CountOutgoing(keyboard)
		target = oc.Unwrap()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, ChatID(c), func() error { return run(target) })
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, logger.CompSender, "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run(target)
	}
	return err
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	keyboard := sendOpts != nil && sendOpts.ReplyMarkup != nil
	return sendAsync(c, "sendMessage", keyboard, func(c tele.Context) error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return SendText(c, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: rm})
}

// EditOrSendText replaces the message the update refers to, dropping its
// inline keyboard, or sends a new message when there is nothing to edit.
func EditOrSendText(c tele.Context, text string) error {
	return sendAsync(c, "editMessageText", false, func(c tele.Context) error {
		return c.EditOrSend(text)
	})
}

// Detach strips per-update instrumentation from c. Use it for replies sent
// after the handler has returned.
func Detach(c tele.Context) tele.Context {
	if oc, ok := c.(outgoingCounter); ok {
		return oc.Unwrap()
	}
	return c
}
