package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/tosbook/core/config"
	tg "github.com/m3rciful/tosbook/core/telegram"
	"github.com/m3rciful/tosbook/core/telegram/inbound"
	"github.com/m3rciful/tosbook/core/telegram/router"
	"github.com/m3rciful/tosbook/internal/booking"

	tele "gopkg.in/telebot.v4"
)

// telegramAPI answers every Bot API call and records the texts sent per chat.
type telegramAPI struct {
	mu    sync.Mutex
	texts map[string][]string
}

func (a *telegramAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var params map[string]any
	_ = json.NewDecoder(r.Body).Decode(&params)
	if text, ok := params["text"].(string); ok {
		chat := fmt.Sprint(params["chat_id"])
		a.mu.Lock()
		a.texts[chat] = append(a.texts[chat], text)
		a.mu.Unlock()
	}
	if strings.HasSuffix(r.URL.Path, "/answerCallbackQuery") {
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1}}}`))
}

func (a *telegramAPI) sent(chat int64) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.texts[fmt.Sprint(chat)]...)
}

type liveBot struct {
	bot    *tele.Bot
	lanes  *inbound.Lanes
	engine *booking.Engine
	api    *telegramAPI
	nextID int
}

// newLiveBot wires the registry, routes and middlewares onto a real telebot
// instance the way RunTelegram does, talking to a local Bot API.
func newLiveBot(t *testing.T, dispatcher booking.Dispatcher) *liveBot {
	t.Helper()
	api := &telegramAPI{texts: map[string][]string{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := tele.NewBot(tele.Settings{URL: srv.URL, Token: "1:test", Offline: true, Synchronous: true})
	require.NoError(t, err)

	lb := &liveBot{
		bot:    b,
		lanes:  inbound.New(inbound.Options{Workers: 4}),
		engine: booking.NewEngine(booking.EngineOptions{Dispatcher: dispatcher}),
		api:    api,
	}
	t.Cleanup(lb.lanes.Close)

	reg := tg.NewRegistry()
	require.NoError(t, New(Options{Engine: lb.engine}).Register(reg))

	b.Use(lb.lanes.Middleware)
	for _, mw := range tg.DefaultMiddlewares(&coreconfig.Config{}, OnRateLimited) {
		b.Use(mw.Use)
	}
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: 1})
	routes = append(routes, router.TextRoutes(reg)...)
	routes = append(routes, router.CallbackRoute(reg))
	for _, r := range routes {
		b.Handle(r.Endpoint, r.Handler)
	}
	return lb
}

func (lb *liveBot) text(user int64, s string) {
	lb.nextID++
	lb.bot.ProcessUpdate(tele.Update{ID: lb.nextID, Message: &tele.Message{
		Text:   s,
		Sender: &tele.User{ID: user},
		Chat:   &tele.Chat{ID: user, Type: tele.ChatPrivate},
	}})
}

func (lb *liveBot) press(user int64) {
	lb.nextID++
	lb.bot.ProcessUpdate(tele.Update{ID: lb.nextID, Callback: &tele.Callback{
		ID:     fmt.Sprint(lb.nextID),
		Sender: &tele.User{ID: user},
		Data:   "\f" + ActionSendReceipt,
		Message: &tele.Message{
			ID:   1,
			Chat: &tele.Chat{ID: user, Type: tele.ChatPrivate},
		},
	}})
}

func answersFor(user int64) []string {
	return []string{
		fmt.Sprintf("client-%d", user), fmt.Sprintf("contact-%d", user), "Portrait",
		"01/02/2025", "14:00", fmt.Sprint(user), fmt.Sprintf("%d.50", user),
	}
}

func TestUpdatesApplyInArrivalOrder(t *testing.T) {
	var (
		mu        sync.Mutex
		delivered = map[int64]booking.Record{}
	)
	lb := newLiveBot(t, booking.DispatcherFunc(func(_ context.Context, id int64, rec booking.Record) error {
		mu.Lock()
		delivered[id] = rec
		mu.Unlock()
		return nil
	}))

	const participants = 12
	for p := int64(1); p <= participants; p++ {
		lb.text(p, "/start")
	}
	for i := 0; i < 7; i++ {
		for p := int64(1); p <= participants; p++ {
			lb.text(p, answersFor(p)[i])
		}
	}
	for p := int64(1); p <= participants; p++ {
		lb.press(p)
	}
	lb.lanes.Close()
	lb.engine.Wait()

	require.Len(t, delivered, participants)
	for p := int64(1); p <= participants; p++ {
		rec := delivered[p]
		assert.Equal(t, fmt.Sprintf("client-%d", p), rec.ClientName)
		assert.Equal(t, fmt.Sprintf("contact-%d", p), rec.Contact)
		assert.Equal(t, "Portrait", rec.SessionType)
		assert.Equal(t, int(p), rec.People)
		assert.InDelta(t, float64(p)+0.5, rec.TotalPrice, 1e-9)

		sent := lb.api.sent(p)
		require.Len(t, sent, 9, "participant %d", p)
		assert.Equal(t, booking.PromptClientName, sent[0])
		assert.Equal(t, booking.PromptContact, sent[1])
		assert.Equal(t, booking.PromptTotalPrice, sent[6])
		assert.Contains(t, sent[7], "*Booking Summary*")
		assert.Equal(t, booking.MsgReceiptSent, sent[8])
	}
	assert.Equal(t, 0, lb.engine.ActiveSessions())
}

func TestCancelIsNotQueuedBehindDelivery(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	lb := newLiveBot(t, booking.DispatcherFunc(func(context.Context, int64, booking.Record) error {
		close(entered)
		<-release
		return nil
	}))

	const user = 42
	lb.text(user, "/start")
	for _, a := range answersFor(user) {
		lb.text(user, a)
	}
	lb.press(user)
	<-entered

	lb.text(user, "/cancel")
	require.Eventually(t, func() bool {
		sent := lb.api.sent(user)
		return len(sent) > 0 && sent[len(sent)-1] == booking.MsgCancelled
	}, time.Second, 5*time.Millisecond)
	_, ok := lb.engine.Session(user)
	assert.False(t, ok)

	close(release)
	lb.lanes.Close()
	lb.engine.Wait()
	sent := lb.api.sent(user)
	assert.Equal(t, booking.MsgReceiptSent, sent[len(sent)-1])
}
