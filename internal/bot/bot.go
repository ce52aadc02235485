// Package bot adapts Telegram updates to the booking engine and renders its
// replies.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/tosbook/core/logger"
	tg "github.com/m3rciful/tosbook/core/telegram"
	"github.com/m3rciful/tosbook/core/telegram/commands"
	tghelpers "github.com/m3rciful/tosbook/core/telegram/helpers"
	"github.com/m3rciful/tosbook/core/telegram/keyboard"
	"github.com/m3rciful/tosbook/internal/booking"
	"github.com/m3rciful/tosbook/internal/journal"

	tele "gopkg.in/telebot.v4"
)

// ActionSendReceipt is the callback key of the confirmation button.
const ActionSendReceipt = "send_receipt"

const msgSlowDown = "Slow down a little."

// Options wires the adapter.
type Options struct {
	Engine *booking.Engine
	// SendFailures reports outbound Telegram calls that failed for good.
	SendFailures func() uint64
	// DeliveryStats is set when the delivery journal is enabled.
	DeliveryStats func(ctx context.Context) (journal.Stats, error)
}

// Bot routes commands, text and the confirmation button into the engine.
type Bot struct {
	engine        *booking.Engine
	sendFailures  func() uint64
	deliveryStats func(ctx context.Context) (journal.Stats, error)
}

// New builds a Bot.
func New(opts Options) *Bot {
	b := &Bot{
		engine:        opts.Engine,
		sendFailures:  opts.SendFailures,
		deliveryStats: opts.DeliveryStats,
	}
	if b.sendFailures == nil {
		b.sendFailures = func() uint64 { return 0 }
	}
	return b
}

// Register adds the bot commands, the confirmation callback and the text
// handler to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		"/start":   {Handler: b.on(booking.EventStart), Description: "Start a new booking"},
		"/cancel":  {Handler: b.on(booking.EventCancel), Description: "Cancel the current booking"},
		"/restart": {Handler: b.on(booking.EventRestart), Description: "Start the booking over"},
		"/stats":   {Handler: b.stats, Description: "Bot statistics", AdminOnly: true, Hidden: true},
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	if err := reg.RegisterCallback(ActionSendReceipt, b.on(booking.EventConfirm)); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	reg.SetTextFallback(b.on(booking.EventText))
	return nil
}

func (b *Bot) on(kind booking.EventKind) tele.HandlerFunc {
	return func(c tele.Context) error {
		id, ok := tghelpers.ParticipantID(c)
		if !ok {
			return nil
		}
		ev := booking.Event{Kind: kind}
		if kind == booking.EventText {
			ev.Text = c.Text()
		}
		ctx := tghelpers.BuildContext(c)
		replies := b.engine.Submit(ctx, id, ev, func(late []booking.Reply) {
			if err := render(tghelpers.Detach(c), late); err != nil {
				logger.Warn(ctx, logger.CompBooking, "dialog.ack",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
		})
		return render(c, replies)
	}
}

func render(c tele.Context, replies []booking.Reply) error {
	for _, r := range replies {
		var err error
		switch {
		case r.Acknowledge:
			err = tghelpers.EditOrSendText(c, r.Text)
		case r.Confirm:
			err = tghelpers.SendMD(c, r.Text, confirmMarkup())
		case r.Markdown:
			err = tghelpers.SendMD(c, r.Text)
		default:
			err = tghelpers.SendText(c, r.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func confirmMarkup() *tele.ReplyMarkup {
	return keyboard.Single(booking.ConfirmLabel, ActionSendReceipt)
}

func (b *Bot) stats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Active bookings: %d\n", b.engine.ActiveSessions())
	fmt.Fprintf(&sb, "Failed sends: %d", b.sendFailures())
	if b.deliveryStats != nil {
		st, err := b.deliveryStats(ctx)
		if err != nil {
			logger.Warn(ctx, logger.CompJournal, "journal.stats", slog.String("err", err.Error()))
			sb.WriteString("\nDeliveries: unavailable")
		} else {
			fmt.Fprintf(&sb, "\nDeliveries: %d (failed %d)", st.Total, st.Failed)
		}
	}
	return tghelpers.SendText(c, sb.String())
}

// OnRateLimited answers throttled button presses so the client stops
// spinning; throttled messages are dropped silently.
func OnRateLimited(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&tele.CallbackResponse{Text: msgSlowDown})
}
