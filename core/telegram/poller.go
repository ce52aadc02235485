package telegram

import (
	coreconfig "github.com/m3rciful/tosbook/core/config"

	tele "gopkg.in/telebot.v4"
)

// BuildPoller returns the webhook listener or a long poller according to cfg.
// The webhook asks Telegram for a single connection so pushed updates arrive
// in order.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.Webhook() {
		return &tele.Webhook{
			Listen:         cfg.Webhook.Addr(),
			MaxConnections: 1,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{Timeout: cfg.Telegram.LongPollTimeout()}
}
