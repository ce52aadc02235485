package router

import (
	"time"

	tg "github.com/m3rciful/tosbook/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextRoutes builds the route for plain text. Command aliases registered in
// reg are resolved first; everything else goes to the registry text fallback.
func TextRoutes(reg *tg.Registry) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()

		if key, cmd, ok := reg.LookupCommand(c.Text()); ok && !cmd.AdminOnly {
			return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
				return cmd.Handler(c)
			})
		}

		if fb := reg.TextFallback(); fb != nil {
			return handleWithSummary(c, "text", start, func() error {
				return fb(c)
			})
		}

		logHandlerSummary(c, "text", start, "skip", nil)
		return nil
	}

	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}
