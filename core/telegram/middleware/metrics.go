package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const (
	keyMessages = "messages"
	keyKeyboard = "kb"
)

// metricsContext counts the messages a handler sends and whether any of
// them carried a keyboard.
type metricsContext struct{ tele.Context }

// CountOutgoing records one outgoing message. Queued sends are counted by
// the send helpers at enqueue time.
func (m metricsContext) CountOutgoing(keyboard bool) {
	n, _ := m.Get(keyMessages).(int)
	m.Set(keyMessages, n+1)
	if keyboard {
		m.Set(keyKeyboard, true)
	}
}

// Unwrap returns the uninstrumented context.
func (m metricsContext) Unwrap() tele.Context { return m.Context }

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.CountOutgoing(hasKeyboard(opts))
	}
	return err
}

func (m metricsContext) Edit(what any, opts ...any) error {
	err := m.Context.Edit(what, opts...)
	if err == nil {
		m.CountOutgoing(hasKeyboard(opts))
	}
	return err
}

func (m metricsContext) EditOrSend(what any, opts ...any) error {
	err := m.Context.EditOrSend(what, opts...)
	if err == nil {
		m.CountOutgoing(hasKeyboard(opts))
	}
	return err
}

// MessageMetricsMiddleware resets the per-update counters read by GetCounters.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keyMessages, 0)
		c.Set(keyKeyboard, false)
		return next(metricsContext{Context: c})
	}
}

// GetCounters returns how many messages the update produced and whether
// any had a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(keyMessages).(int)
	kb, _ := c.Get(keyKeyboard).(bool)
	return msgs, kb
}
