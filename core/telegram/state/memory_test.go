package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSession struct {
	Step  State
	Count int
}

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager[testSession]()

	_, ok := m.Get(1)
	require.False(t, ok)

	m.Update(1, func(cur *testSession) *testSession {
		require.Nil(t, cur)
		return &testSession{Step: "first"}
	})
	got, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, State("first"), got.Step)
	assert.Equal(t, 1, m.Len())

	got.Step = "mutated copy"
	again, _ := m.Get(1)
	assert.Equal(t, State("first"), again.Step, "Get must return a copy")

	m.Update(1, func(*testSession) *testSession { return nil })
	_, ok = m.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())

	// removing a missing session is a no-op
	m.Update(2, func(*testSession) *testSession { return nil })
	assert.Equal(t, 0, m.Len())
}

func TestMemoryManagerSerializesPerUser(t *testing.T) {
	m := NewMemoryManager[testSession]()
	const workers, rounds = 16, 200

	var wg sync.WaitGroup
	for _, user := range []int64{10, 20} {
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(user int64) {
				defer wg.Done()
				for i := 0; i < rounds; i++ {
					m.Update(user, func(cur *testSession) *testSession {
						next := testSession{Step: State("user")}
						if cur != nil {
							next.Count = cur.Count
						}
						next.Count++
						return &next
					})
				}
			}(user)
		}
	}
	wg.Wait()

	for _, user := range []int64{10, 20} {
		got, ok := m.Get(user)
		require.True(t, ok)
		assert.Equal(t, workers*rounds, got.Count, "user %d lost updates", user)
	}
	assert.Equal(t, 2, m.Len())
}

func TestMemoryManagerUsersDoNotBlockEachOther(t *testing.T) {
	m := NewMemoryManager[testSession]()
	entered := make(chan struct{})
	unblock := make(chan struct{})

	go m.Update(1, func(cur *testSession) *testSession {
		close(entered)
		<-unblock
		return &testSession{Step: "slow"}
	})
	<-entered

	done := make(chan struct{})
	go func() {
		m.Update(2, func(*testSession) *testSession { return &testSession{Step: "fast"} })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("update for user 2 blocked on user 1")
	}
	close(unblock)
}
