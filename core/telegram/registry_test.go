package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/tosbook/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"}))
	require.NoError(t, r.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "Stats", AdminOnly: true, Hidden: true}))
	require.NoError(t, r.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel", Aliases: []string{"stop booking"}}))

	assert.Error(t, r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "again"}))
	assert.ErrorIs(t, r.RegisterCommand("help", commands.Command{Handler: noop, Description: "Help"}), commands.ErrInvalid)
	assert.Error(t, r.RegisterCommand("/x", commands.Command{Description: "no handler"}))

	assert.Equal(t, []tele.Command{
		{Text: "/cancel", Description: "Cancel"},
		{Text: "/start", Description: "Start"},
	}, r.ListCommands(true))
	assert.Len(t, r.ListCommands(false), 3)

	key, _, ok := r.LookupCommand("/start")
	assert.True(t, ok)
	assert.Equal(t, "/start", key)

	// bare words are answers, not commands
	_, _, ok = r.LookupCommand("start")
	assert.False(t, ok)

	key, _, ok = r.LookupCommand("  Stop Booking ")
	assert.True(t, ok)
	assert.Equal(t, "/cancel", key)
}

func TestRegistryCallbacks(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterCallback("send_receipt", noop))
	assert.Error(t, r.RegisterCallback("send_receipt", noop))
	assert.Error(t, r.RegisterCallback("", noop))

	_, ok := r.GetCallback("send_receipt")
	assert.True(t, ok)
	_, ok = r.GetCallback("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"send_receipt"}, r.ListCallbacks())
	assert.NotNil(t, r.CallbackNotFound())
}
