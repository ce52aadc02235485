// Package keyboard builds inline reply markups.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is an inline button routed by Unique.
type Button struct {
	Label   string
	Unique  string
	Payload string
}

// Inline lays rows of buttons out as an inline keyboard.
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	out := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		btns := make([]tele.Btn, 0, len(row))
		for _, b := range row {
			btns = append(btns, m.Data(b.Label, b.Unique, b.Payload))
		}
		out = append(out, m.Row(btns...))
	}
	m.Inline(out...)
	return m
}

// Single returns a keyboard holding one button.
func Single(label, unique string) *tele.ReplyMarkup {
	return Inline([]Button{{Label: label, Unique: unique}})
}
