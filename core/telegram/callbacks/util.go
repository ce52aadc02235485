// Package callbacks decodes inline button callback data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Data is a decoded inline button press.
type Data struct {
	// Key selects the registered handler.
	Key string
	// Payload is whatever followed the first '|', possibly empty.
	Payload string
}

// Parse decodes Telebot's "\f<unique>|<payload>" encoding. A non-empty
// cb.Unique wins over the key found in Data.
func Parse(cb *tele.Callback) Data {
	if cb == nil {
		return Data{}
	}
	key, payload, _ := strings.Cut(strings.TrimPrefix(cb.Data, "\f"), "|")
	d := Data{Key: strings.TrimSpace(key), Payload: payload}
	if cb.Unique != "" {
		d.Key = cb.Unique
	}
	return d
}

