package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/tosbook/core/telegram"
	"github.com/m3rciful/tosbook/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the routes touch and
// records what happened in order.
type fakeContext struct {
	tele.Context
	upd    tele.Update
	store  map[string]any
	events *[]string
}

func (f *fakeContext) Update() tele.Update      { return f.upd }
func (f *fakeContext) Callback() *tele.Callback { return f.upd.Callback }
func (f *fakeContext) Sender() *tele.User {
	if f.upd.Callback != nil {
		return f.upd.Callback.Sender
	}
	return f.upd.Message.Sender
}
func (f *fakeContext) Chat() *tele.Chat {
	if f.upd.Message != nil {
		return f.upd.Message.Chat
	}
	return nil
}
func (f *fakeContext) Text() string {
	if f.upd.Message != nil {
		return f.upd.Message.Text
	}
	return ""
}
func (f *fakeContext) Get(key string) any      { return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.store[key] = val }
func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	ev := "respond"
	if len(resp) > 0 && resp[0] != nil && resp[0].Text != "" {
		ev += ":" + resp[0].Text
	}
	*f.events = append(*f.events, ev)
	return nil
}

type routes struct {
	byEndpoint map[any]tele.HandlerFunc
	events     []string
}

func (r *routes) wire(t *testing.T, reg *tg.Registry, adminID int64) {
	t.Helper()
	r.byEndpoint = map[any]tele.HandlerFunc{}
	all := CommandRoutes(reg, CommandRouteOptions{
		AdminID: adminID,
		OnAdminReject: func(tele.Context) error {
			r.events = append(r.events, "rejected")
			return nil
		},
	})
	all = append(all, TextRoutes(reg)...)
	all = append(all, CallbackRoute(reg))
	for _, route := range all {
		_, dup := r.byEndpoint[route.Endpoint]
		require.False(t, dup, "endpoint %v routed twice", route.Endpoint)
		r.byEndpoint[route.Endpoint] = route.Handler
	}
}

func (r *routes) message(t *testing.T, endpoint any, user int64, text string) {
	t.Helper()
	h, ok := r.byEndpoint[endpoint]
	require.True(t, ok, "no route for %v", endpoint)
	c := &fakeContext{
		upd: tele.Update{ID: 1, Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: user},
			Chat:   &tele.Chat{ID: user, Type: tele.ChatPrivate},
		}},
		store:  map[string]any{},
		events: &r.events,
	}
	require.NoError(t, h(c))
}

func (r *routes) press(t *testing.T, user int64, data string) {
	t.Helper()
	c := &fakeContext{
		upd: tele.Update{ID: 2, Callback: &tele.Callback{
			Sender: &tele.User{ID: user},
			Data:   data,
		}},
		store:  map[string]any{},
		events: &r.events,
	}
	require.NoError(t, r.byEndpoint[tele.OnCallback](c))
}

func recording(events *[]string, name string) tele.HandlerFunc {
	return func(tele.Context) error {
		*events = append(*events, name)
		return nil
	}
}

func newRegistry(t *testing.T, events *[]string) *tg.Registry {
	t.Helper()
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{
		Handler: recording(events, "start"), Description: "Start", Aliases: []string{"book"},
	}))
	require.NoError(t, reg.RegisterCommand("/stats", commands.Command{
		Handler: recording(events, "stats"), Description: "Stats", AdminOnly: true, Hidden: true,
		Aliases: []string{"stats please"},
	}))
	require.NoError(t, reg.RegisterCallback("send_receipt", recording(events, "send_receipt")))
	reg.SetTextFallback(recording(events, "fallback"))
	return reg
}

func TestAdminCommandIsGuarded(t *testing.T) {
	r := &routes{}
	r.wire(t, newRegistry(t, &r.events), 100)

	r.message(t, "/stats", 5, "/stats")
	assert.Equal(t, []string{"rejected"}, r.events)

	r.events = nil
	r.message(t, "/stats", 100, "/stats")
	assert.Equal(t, []string{"stats"}, r.events)

	r.events = nil
	r.message(t, "/start", 5, "/start")
	assert.Equal(t, []string{"start"}, r.events)
}

func TestAdminCommandWithoutAdminConfigured(t *testing.T) {
	r := &routes{}
	r.wire(t, newRegistry(t, &r.events), 0)

	r.message(t, "/stats", 0, "/stats")
	assert.Equal(t, []string{"rejected"}, r.events)
}

func TestTextResolvesAliasesBeforeFallback(t *testing.T) {
	r := &routes{}
	r.wire(t, newRegistry(t, &r.events), 100)

	r.message(t, tele.OnText, 5, "  BOOK ")
	r.message(t, tele.OnText, 5, "Alice")
	// admin commands are never reachable through an alias, not even for the admin
	r.message(t, tele.OnText, 100, "stats please")
	assert.Equal(t, []string{"start", "fallback", "fallback"}, r.events)
}

func TestTextWithoutFallbackIsSkipped(t *testing.T) {
	r := &routes{}
	r.wire(t, tg.NewRegistry(), 0)
	r.message(t, tele.OnText, 5, "hello")
	assert.Empty(t, r.events)
}

func TestCallbackAnsweredThenDispatched(t *testing.T) {
	r := &routes{}
	r.wire(t, newRegistry(t, &r.events), 100)

	r.press(t, 5, "\fsend_receipt|payload")
	assert.Equal(t, []string{"respond", "send_receipt"}, r.events)

	r.events = nil
	r.press(t, 5, "\fsomething_else")
	assert.Equal(t, []string{"respond:Unsupported action"}, r.events)
}
