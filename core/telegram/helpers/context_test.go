package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/tosbook/core/logger"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	upd   tele.Update
	store map[string]any
}

func newFake(upd tele.Update) *fakeContext {
	return &fakeContext{upd: upd, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update { return f.upd }
func (f *fakeContext) Sender() *tele.User {
	switch {
	case f.upd.Callback != nil:
		return f.upd.Callback.Sender
	case f.upd.Message != nil:
		return f.upd.Message.Sender
	}
	return nil
}
func (f *fakeContext) Chat() *tele.Chat {
	if f.upd.Message != nil {
		return f.upd.Message.Chat
	}
	return nil
}
func (f *fakeContext) Get(key string) any      { return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.store[key] = val }

func TestParticipantAndChat(t *testing.T) {
	msg := newFake(tele.Update{Message: &tele.Message{
		Sender: &tele.User{ID: 7},
		Chat:   &tele.Chat{ID: -100},
	}})
	id, ok := ParticipantID(msg)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, int64(-100), ChatID(msg))

	cb := newFake(tele.Update{Callback: &tele.Callback{Sender: &tele.User{ID: 9}}})
	assert.Equal(t, int64(9), ChatID(cb))

	_, ok = ParticipantID(newFake(tele.Update{}))
	assert.False(t, ok)
}

func TestBuildContextIsCached(t *testing.T) {
	c := newFake(tele.Update{ID: 3, Message: &tele.Message{
		Sender: &tele.User{ID: 7},
		Chat:   &tele.Chat{ID: 7},
	}})
	c.Set(RIDKey, "rid-fixed")

	ctx := BuildContext(c)
	assert.Equal(t, "rid-fixed", logger.RIDFrom(ctx))
	assert.Equal(t, ctx, BuildContext(c))

	tagged := WithHandler(c, "start")
	assert.Equal(t, "start", logger.HandlerFrom(tagged))
	cached, ok := ContextFrom(c)
	require.True(t, ok)
	assert.Equal(t, tagged, cached)
}
