// internal/store/store_test.go
package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(shards int, expiry time.Duration) *Sharded {
	return NewSharded(shards, expiry, zap.NewNop())
}

func TestUpdateAndGet(t *testing.T) {
	s := newTestStore(4, time.Hour)

	s.Update(42, func(st *UserState) {
		st.Query = "inception"
		st.Results["m1"] = schemas.SearchResult{Title: "Inception (2010)"}
	})

	state, ok := s.Get(42)
	require.True(t, ok)
	assert.Equal(t, "inception", state.Query)
	assert.Equal(t, "Inception (2010)", state.Results["m1"].Title)

	_, ok = s.Get(43)
	assert.False(t, ok, "unknown chats have no state")
}

func TestGetReturnsACopy(t *testing.T) {
	s := newTestStore(1, time.Hour)
	s.Update(1, func(st *UserState) {
		st.Results["m1"] = schemas.SearchResult{Title: "Original"}
		st.Selected = &schemas.SearchResult{Title: "Picked"}
	})

	state, ok := s.Get(1)
	require.True(t, ok)
	state.Results["m1"] = schemas.SearchResult{Title: "Tampered"}
	state.Selected.Title = "Tampered"

	fresh, _ := s.Get(1)
	assert.Equal(t, "Original", fresh.Results["m1"].Title)
	assert.Equal(t, "Picked", fresh.Selected.Title)
}

func TestClear(t *testing.T) {
	s := newTestStore(4, time.Hour)
	s.Update(7, func(st *UserState) { st.Query = "dune" })

	s.Clear(7)
	_, ok := s.Get(7)
	assert.False(t, ok)

	// Clearing a chat that has no state is a no-op.
	s.Clear(7)
}

func TestExpiry(t *testing.T) {
	s := newTestStore(2, time.Minute)
	current := time.Unix(1000, 0)
	s.now = func() time.Time { return current }

	s.Update(1, func(st *UserState) { st.Query = "old" })

	// Within the window the state survives and the access refreshes it.
	current = current.Add(50 * time.Second)
	_, ok := s.Get(1)
	require.True(t, ok)

	current = current.Add(50 * time.Second)
	_, ok = s.Get(1)
	require.True(t, ok, "the earlier Get should have refreshed expiry")

	// Past the window the state is gone.
	current = current.Add(2 * time.Minute)
	_, ok = s.Get(1)
	assert.False(t, ok)

	// An Update after expiry starts from fresh state.
	sawFresh := false
	s.Update(1, func(st *UserState) { sawFresh = st.Query == "" })
	assert.True(t, sawFresh)
}

func TestSweep(t *testing.T) {
	s := newTestStore(4, time.Minute)
	current := time.Unix(1000, 0)
	s.now = func() time.Time { return current }

	for chatID := int64(0); chatID < 10; chatID++ {
		s.Update(chatID, func(st *UserState) { st.Query = "q" })
	}

	// Touch half of them later so only the stale half is swept.
	current = current.Add(45 * time.Second)
	for chatID := int64(0); chatID < 5; chatID++ {
		s.Update(chatID, func(*UserState) {})
	}

	current = current.Add(30 * time.Second)
	removed := s.Sweep()
	assert.Equal(t, 5, removed)

	_, ok := s.Get(2)
	assert.True(t, ok)
	_, ok = s.Get(7)
	assert.False(t, ok)
}

func TestStartSweeperStopsOnCancel(t *testing.T) {
	s := newTestStore(2, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	s.StartSweeper(ctx, time.Millisecond)
	s.Update(1, func(st *UserState) { st.Query = "q" })

	// Give the sweeper a few ticks to run, then stop it. goleak verifies the
	// goroutine actually exits.
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	_, ok := s.Get(1)
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	s := newTestStore(8, time.Hour)
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Update(chatID, func(st *UserState) { st.Query = "q" })
				s.Get(chatID)
				if j%10 == 0 {
					s.Clear(chatID)
				}
			}
		}(int64(i % 4))
	}
	wg.Wait()
}
