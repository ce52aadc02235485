package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	tele "gopkg.in/telebot.v4"
)

func TestValidate(t *testing.T) {
	h := func(tele.Context) error { return nil }
	ok := Command{Handler: h, Description: "Start a new booking"}

	assert.NoError(t, ok.Validate("/start"))
	for _, name := range []string{"", "start", "/two words"} {
		assert.ErrorIs(t, ok.Validate(name), ErrInvalid, name)
	}
	assert.ErrorIs(t, Command{Description: "x"}.Validate("/x"), ErrInvalid)
	assert.ErrorIs(t, Command{Handler: h}.Validate("/x"), ErrInvalid)
}

func TestListedAndAliases(t *testing.T) {
	assert.True(t, Command{}.Listed())
	assert.False(t, Command{Hidden: true}.Listed())
	assert.False(t, Command{AdminOnly: true}.Listed())

	c := Command{Aliases: []string{"Stop booking"}}
	assert.True(t, c.MatchesAlias("stop BOOKING"))
	assert.False(t, c.MatchesAlias("stop"))
}
