package middleware

import (
	"log/slog"

	"github.com/m3rciful/tosbook/core/logger"
	"github.com/m3rciful/tosbook/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/tosbook/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware assigns the update its request id, caches the logging
// context for handlers and, at debug level, logs what arrived.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		userID, _ := tghelpers.ParticipantID(c)
		c.Set(tghelpers.RIDKey, logger.BuildRID(c.Update().ID, tghelpers.ChatID(c), userID))
		ctx := tghelpers.BuildContext(c)

		if logger.DebugEnabled() {
			logger.LogEvent(ctx, nil, slog.LevelDebug, "update.received", updateAttrs(c)...)
		}
		return next(c)
	}
}

func updateAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok"), slog.String("kind", updateKind(c.Update()))}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil && u.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
	}

	var key, payload string
	if cb := c.Callback(); cb != nil {
		d := callbacks.Parse(cb)
		key, payload = d.Key, d.Payload
	} else {
		payload = c.Text()
	}
	if key != "" {
		attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
	}
	if payload != "" {
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
	}
	return attrs
}
