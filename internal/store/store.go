// internal/store/store.go

// Package store keeps per-chat conversation state between Telegram updates.
// Everything here is ephemeral: state lives in memory, expires after a
// configured idle period, and is lost on restart. That is acceptable because
// the worst case is a user re-running a search.
package store

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

// UserState is one chat's progress through the search conversation.
type UserState struct {
	// Query is the last search the user typed.
	Query string
	// Results maps short callback ids to the search results offered.
	Results map[string]schemas.SearchResult
	// Selected is the movie the user picked, nil until they pick one.
	Selected *schemas.SearchResult
	// Options maps short callback ids to the download options offered.
	Options map[string]schemas.DownloadOption
}

// Store is the conversation state keeper.
type Store interface {
	// Update applies mutate to the chat's state under the shard lock,
	// creating fresh state when none exists. The access refreshes expiry.
	Update(chatID int64, mutate func(*UserState))
	// Get returns a copy of the chat's state. ok is false when
	// the chat has no live state.
	Get(chatID int64) (UserState, bool)
	// Clear drops the chat's state.
	Clear(chatID int64)
}

// record wraps state with its last-touched timestamp.
type record struct {
	state   UserState
	touched time.Time
}

type shard struct {
	mu      sync.Mutex
	records map[int64]*record
}

// Sharded is an in-memory Store split across shards to keep lock contention
// down during bursts of concurrent updates.
type Sharded struct {
	shards []*shard
	expiry time.Duration
	logger *zap.Logger
	// now is swappable for tests.
	now func() time.Time
}

var _ Store = (*Sharded)(nil)

// NewSharded creates the store. shards must be positive; expiry is the idle
// period after which a chat's state is dropped.
func NewSharded(shards int, expiry time.Duration, logger *zap.Logger) *Sharded {
	if shards <= 0 {
		shards = 1
	}
	s := &Sharded{
		shards: make([]*shard, shards),
		expiry: expiry,
		logger: logger.Named("store"),
		now:    time.Now,
	}
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[int64]*record)}
	}
	return s
}

func (s *Sharded) shardFor(chatID int64) *shard {
	h := fnv.New32a()
	h.Write([]byte(strconv.FormatInt(chatID, 10)))
	return s.shards[int(h.Sum32())%len(s.shards)]
}

func (s *Sharded) Update(chatID int64, mutate func(*UserState)) {
	sh := s.shardFor(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[chatID]
	if !ok || s.expired(rec) {
		rec = &record{state: UserState{
			Results: make(map[string]schemas.SearchResult),
			Options: make(map[string]schemas.DownloadOption),
		}}
		sh.records[chatID] = rec
	}
	mutate(&rec.state)
	rec.touched = s.now()
}

func (s *Sharded) Get(chatID int64) (UserState, bool) {
	sh := s.shardFor(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[chatID]
	if !ok || s.expired(rec) {
		return UserState{}, false
	}
	rec.touched = s.now()
	return copyState(rec.state), true
}

func (s *Sharded) Clear(chatID int64) {
	sh := s.shardFor(chatID)
	sh.mu.Lock()
	delete(sh.records, chatID)
	sh.mu.Unlock()
}

func (s *Sharded) expired(rec *record) bool {
	return s.expiry > 0 && s.now().Sub(rec.touched) > s.expiry
}

// Sweep drops every expired record and returns how many were removed.
func (s *Sharded) Sweep() int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for chatID, rec := range sh.records {
			if s.expired(rec) {
				delete(sh.records, chatID)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	if removed > 0 {
		s.logger.Debug("Swept expired chat state.", zap.Int("removed", removed))
	}
	return removed
}

// StartSweeper runs Sweep on the interval until ctx is canceled.
func (s *Sharded) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// copyState deep-copies the maps so callers can't mutate stored state.
func copyState(in UserState) UserState {
	out := UserState{
		Query:   in.Query,
		Results: make(map[string]schemas.SearchResult, len(in.Results)),
		Options: make(map[string]schemas.DownloadOption, len(in.Options)),
	}
	for k, v := range in.Results {
		out.Results[k] = v
	}
	for k, v := range in.Options {
		out.Options[k] = v
	}
	if in.Selected != nil {
		sel := *in.Selected
		out.Selected = &sel
	}
	return out
}
