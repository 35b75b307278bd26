package controllers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impressive-vote/models"
	"impressive-vote/store"
)

func newTestManager(durationMs int64) (*GameManager, *clockwork.FakeClock, *models.Hub) {
	hub := models.NewHub()
	go hub.Run()
	clock := clockwork.NewFakeClock()
	gm := NewGameManager(hub, store.NewMemoryStore(), clock, durationMs)
	return gm, clock, hub
}

func TestStartFromIdle(t *testing.T) {
	gm, clock, _ := newTestManager(5000)

	start, err := gm.Start()
	require.NoError(t, err)
	assert.Equal(t, clock.Now().UnixMilli(), start)

	state := gm.PublicState("")
	assert.Equal(t, models.StatusVoting, state.Status)
	require.NotNil(t, state.StartTime)
	assert.Equal(t, start, *state.StartTime)
}

func TestStartWhileVoting(t *testing.T) {
	gm, _, _ := newTestManager(5000)

	_, err := gm.Start()
	require.NoError(t, err)

	_, err = gm.Start()
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestStartAfterFinished(t *testing.T) {
	gm, clock, _ := newTestManager(5000)

	_, err := gm.Start()
	require.NoError(t, err)
	clock.Advance(5 * time.Second)

	_, err = gm.Start()
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestCastVote(t *testing.T) {
	gm, _, _ := newTestManager(5000)

	_, err := gm.Start()
	require.NoError(t, err)

	require.NoError(t, gm.CastVote("alice", "John", "Jane"))

	state := gm.AdminState()
	require.Len(t, state.Game.Votes, 1)
	assert.Equal(t, 1, state.VoteCount)
	assert.Equal(t, "alice", state.Game.Votes[0].VoterDomain)
	assert.Equal(t, "John", state.Game.Votes[0].MrName)
	assert.Equal(t, "Jane", state.Game.Votes[0].MrsName)
	assert.True(t, gm.PublicState("alice").HasVoted)
	assert.False(t, gm.PublicState("bob").HasVoted)
}

func TestCastVoteTrimsFields(t *testing.T) {
	gm, _, _ := newTestManager(5000)

	_, err := gm.Start()
	require.NoError(t, err)

	require.NoError(t, gm.CastVote("  alice ", " John ", " Jane\t"))

	vote := gm.AdminState().Game.Votes[0]
	assert.Equal(t, "alice", vote.VoterDomain)
	assert.Equal(t, "John", vote.MrName)
	assert.Equal(t, "Jane", vote.MrsName)

	// same voter after trimming
	assert.ErrorIs(t, gm.CastVote("alice", "Bob", "Amy"), models.ErrDuplicateVoter)
}

func TestCastVoteDuplicate(t *testing.T) {
	gm, _, _ := newTestManager(5000)

	_, err := gm.Start()
	require.NoError(t, err)

	require.NoError(t, gm.CastVote("alice", "John", "Jane"))
	assert.ErrorIs(t, gm.CastVote("alice", "Bob", "Amy"), models.ErrDuplicateVoter)
	assert.Equal(t, 1, gm.AdminState().VoteCount)
}

func TestCastVoteBeforeStart(t *testing.T) {
	gm, _, _ := newTestManager(5000)
	assert.ErrorIs(t, gm.CastVote("alice", "John", "Jane"), models.ErrNotVotingPhase)
}

func TestCastVoteAfterFinished(t *testing.T) {
	gm, clock, _ := newTestManager(5000)

	_, err := gm.Start()
	require.NoError(t, err)
	clock.Advance(5 * time.Second)

	assert.ErrorIs(t, gm.CastVote("alice", "John", "Jane"), models.ErrNotVotingPhase)
}

func TestCastVoteInvalidInput(t *testing.T) {
	gm, _, _ := newTestManager(5000)

	_, err := gm.Start()
	require.NoError(t, err)

	cases := []struct {
		name    string
		domain  string
		mrName  string
		mrsName string
	}{
		{"empty domain", "", "John", "Jane"},
		{"empty mr", "alice", "", "Jane"},
		{"empty mrs", "alice", "John", ""},
		{"whitespace only", "alice", "   ", "Jane"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, gm.CastVote(tc.domain, tc.mrName, tc.mrsName), models.ErrInvalidInput)
		})
	}
}

func TestEffectiveStatusBoundary(t *testing.T) {
	gm, clock, _ := newTestManager(5000)

	_, err := gm.Start()
	require.NoError(t, err)

	assert.Equal(t, models.StatusVoting, gm.PublicState("").Status)

	clock.Advance(4999 * time.Millisecond)
	assert.Equal(t, models.StatusVoting, gm.PublicState("").Status)

	clock.Advance(1 * time.Millisecond)
	assert.Equal(t, models.StatusFinished, gm.PublicState("").Status)
}

func TestResetAlwaysSucceeds(t *testing.T) {
	gm, clock, _ := newTestManager(5000)

	// reset while idle
	gm.Reset()
	assert.Equal(t, models.StatusIdle, gm.PublicState("").Status)

	// reset mid-vote
	_, err := gm.Start()
	require.NoError(t, err)
	require.NoError(t, gm.CastVote("alice", "John", "Jane"))
	gm.Reset()

	state := gm.AdminState()
	assert.Equal(t, models.StatusIdle, state.Game.Status)
	assert.Nil(t, state.Game.StartTime)
	assert.Equal(t, 0, state.VoteCount)
	assert.False(t, gm.PublicState("alice").HasVoted)

	// reset after finished
	_, err = gm.Start()
	require.NoError(t, err)
	clock.Advance(5 * time.Second)
	require.Equal(t, models.StatusFinished, gm.PublicState("").Status)
	gm.Reset()
	assert.Equal(t, models.StatusIdle, gm.PublicState("").Status)
}

func TestConcurrentDuplicateVote(t *testing.T) {
	gm, _, _ := newTestManager(5000)

	_, err := gm.Start()
	require.NoError(t, err)

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = gm.CastVote("bob", "John", "Jane")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, models.ErrDuplicateVoter)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, gm.AdminState().VoteCount)
}

func TestTickPromotesAndBroadcasts(t *testing.T) {
	gm, clock, hub := newTestManager(5000)

	observer := &models.Client{ID: "observer", Send: make(chan models.WSMessage, 64), Role: models.RoleUser}
	hub.Add(observer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gm.Run(ctx)
	clock.BlockUntil(1)

	_, err := gm.Start()
	require.NoError(t, err)

	clock.Advance(6 * time.Second)

	require.Eventually(t, func() bool {
		for {
			select {
			case msg := <-observer.Send:
				if msg.Event != "gameStateChanged" {
					continue
				}
				if state, ok := msg.Data.(models.PublicState); ok && state.Status == models.StatusFinished {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond, "observer never saw the finished broadcast")
}

func TestPromotionBroadcastOnMutationPath(t *testing.T) {
	gm, clock, hub := newTestManager(5000)

	observer := &models.Client{ID: "observer", Send: make(chan models.WSMessage, 64), Role: models.RoleUser}
	hub.Add(observer)

	_, err := gm.Start()
	require.NoError(t, err)
	clock.Advance(5 * time.Second)

	// no tick is running; the rejected vote itself observes the elapsed
	// window and must still push the finished state to observers
	assert.ErrorIs(t, gm.CastVote("alice", "John", "Jane"), models.ErrNotVotingPhase)

	require.Eventually(t, func() bool {
		select {
		case msg := <-observer.Send:
			state, ok := msg.Data.(models.PublicState)
			return ok && msg.Event == "gameStateChanged" && state.Status == models.StatusFinished
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "observer never saw the finished broadcast")
}

// blockingStore stalls every save until released, standing in for a
// slow or hung MongoDB.
type blockingStore struct {
	*store.MemoryStore
	release chan struct{}
}

func (s *blockingStore) Save(ctx context.Context, game *models.Game) error {
	<-s.release
	return s.MemoryStore.Save(ctx, game)
}

func TestSlowStoreDoesNotBlockReads(t *testing.T) {
	hub := models.NewHub()
	go hub.Run()
	clock := clockwork.NewFakeClock()
	st := &blockingStore{MemoryStore: store.NewMemoryStore(), release: make(chan struct{})}
	gm := NewGameManager(hub, st, clock, 5000)

	started := make(chan struct{})
	go func() {
		_, err := gm.Start()
		assert.NoError(t, err)
		close(started)
	}()

	// the write is stalled in the store; reads still serve from memory
	require.Eventually(t, func() bool {
		return gm.PublicState("").Status == models.StatusVoting
	}, time.Second, 5*time.Millisecond)

	close(st.release)
	<-started
}

func TestLoadPersisted(t *testing.T) {
	hub := models.NewHub()
	go hub.Run()
	clock := clockwork.NewFakeClock()
	st := store.NewMemoryStore()

	first := NewGameManager(hub, st, clock, 5000)
	_, err := first.Start()
	require.NoError(t, err)
	require.NoError(t, first.CastVote("alice", "John", "Jane"))

	// a new manager over the same store picks up the record
	second := NewGameManager(hub, st, clock, 5000)
	second.LoadPersisted(context.Background())

	state := second.AdminState()
	assert.Equal(t, models.StatusVoting, state.Game.Status)
	assert.Equal(t, 1, state.VoteCount)
	assert.True(t, second.PublicState("alice").HasVoted)
}
