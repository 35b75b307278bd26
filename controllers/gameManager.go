// controllers/gameManager.go
package controllers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"impressive-vote/models"
	"impressive-vote/store"
)

// GameManager owns the authoritative game record. Every mutation and
// every effective-status check runs under its lock, so two concurrent
// votes can never both pass the duplicate check. The store is
// write-through durability; the in-memory record stays the truth.
// Store writes happen outside the record lock so a slow store never
// stalls votes or status reads.
type GameManager struct {
	Hub        *models.Hub
	Store      store.GameStore
	Clock      clockwork.Clock
	DurationMs int64

	mu   sync.Mutex
	game *models.Game

	// persistMu serializes store writes so an older snapshot can never
	// land after a newer one.
	persistMu sync.Mutex
}

// NewGameManager creates a manager holding a fresh idle game.
func NewGameManager(hub *models.Hub, st store.GameStore, clock clockwork.Clock, durationMs int64) *GameManager {
	return &GameManager{
		Hub:        hub,
		Store:      st,
		Clock:      clock,
		DurationMs: durationMs,
		game:       models.NewGame(durationMs),
	}
}

// LoadPersisted replaces the in-memory record with the stored one, if
// any survives from a previous process. Failures degrade to the fresh
// in-memory game and are logged, never surfaced.
func (gm *GameManager) LoadPersisted(ctx context.Context) {
	persisted, err := gm.Store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not load persisted game, serving from memory")
		return
	}
	if persisted == nil {
		return
	}
	gm.mu.Lock()
	gm.game = persisted
	promoted := gm.promoteLocked()
	gm.mu.Unlock()
	if promoted {
		gm.persist()
	}
	log.Info().Str("status", persisted.Status).Int("votes", len(persisted.Votes)).Msg("restored persisted game")
}

// Run drives the once-per-second status check so idle observers learn
// about the VOTING -> FINISHED transition without taking any action.
func (gm *GameManager) Run(ctx context.Context) {
	ticker := gm.Clock.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			gm.mu.Lock()
			promoted := gm.promoteLocked()
			gm.mu.Unlock()
			gm.finishPromotion(promoted)
		}
	}
}

// Start opens the voting window. Fails unless the effective status is
// IDLE. Returns the server-assigned start time in ms.
func (gm *GameManager) Start() (int64, error) {
	gm.mu.Lock()
	promoted := gm.promoteLocked()
	if gm.game.Status != models.StatusIdle {
		gm.mu.Unlock()
		gm.finishPromotion(promoted)
		return 0, models.ErrInvalidTransition
	}
	start := gm.now()
	gm.game.Status = models.StatusVoting
	gm.game.StartTime = &start
	gm.mu.Unlock()

	gm.persist()
	log.Info().Int64("startTime", start).Msg("voting started")
	gm.broadcastState()
	return start, nil
}

// CastVote appends one ballot for the voter. Names and the voter domain
// are trimmed before validation and storage; at most one ballot per
// domain is ever accepted.
func (gm *GameManager) CastVote(voterDomain, mrName, mrsName string) error {
	voterDomain = strings.TrimSpace(voterDomain)
	mrName = strings.TrimSpace(mrName)
	mrsName = strings.TrimSpace(mrsName)
	if voterDomain == "" || mrName == "" || mrsName == "" {
		return models.ErrInvalidInput
	}

	gm.mu.Lock()
	promoted := gm.promoteLocked()
	if gm.game.Status != models.StatusVoting {
		gm.mu.Unlock()
		gm.finishPromotion(promoted)
		return models.ErrNotVotingPhase
	}
	if gm.game.HasVoted(voterDomain) {
		gm.mu.Unlock()
		return models.ErrDuplicateVoter
	}
	gm.game.Votes = append(gm.game.Votes, models.Vote{
		VoterDomain: voterDomain,
		MrName:      mrName,
		MrsName:     mrsName,
		Timestamp:   gm.now(),
	})
	count := len(gm.game.Votes)
	gm.mu.Unlock()

	gm.persist()
	log.Info().Str("domain", voterDomain).Int("votes", count).Msg("vote accepted")
	gm.broadcastState()
	return nil
}

// Reset discards the game, ballots included, and installs a fresh idle
// record. Unconditional and irreversible.
func (gm *GameManager) Reset() {
	fresh := models.NewGame(gm.DurationMs)
	gm.mu.Lock()
	gm.game = fresh
	gm.mu.Unlock()

	gm.persistMu.Lock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := gm.Store.Reset(ctx, fresh.Clone()); err != nil {
		log.Warn().Err(err).Msg("store reset failed, serving from memory")
	}
	cancel()
	gm.persistMu.Unlock()

	log.Info().Msg("game reset")
	gm.Hub.BroadcastAll("gameReset", nil)
	gm.broadcastState()
}

// PublicState returns the snapshot for plain observers, with the
// personal hasVoted flag when a voter domain is supplied.
func (gm *GameManager) PublicState(voterDomain string) models.PublicState {
	gm.mu.Lock()
	promoted := gm.promoteLocked()
	state := models.PublicState{
		Status:     gm.game.Status,
		StartTime:  gm.game.StartTime,
		DurationMs: gm.game.DurationMs,
		ServerTime: gm.now(),
		HasVoted:   voterDomain != "" && gm.game.HasVoted(voterDomain),
	}
	gm.mu.Unlock()
	gm.finishPromotion(promoted)
	return state
}

// AdminState returns the full snapshot, ballots included.
func (gm *GameManager) AdminState() models.AdminState {
	gm.mu.Lock()
	promoted := gm.promoteLocked()
	snapshot := gm.game.Clone()
	gm.mu.Unlock()
	gm.finishPromotion(promoted)
	return models.AdminState{Game: snapshot, VoteCount: len(snapshot.Votes)}
}

// Results tallies the ballots of a finished game. Fails with
// ErrResultsNotReady until the window has elapsed.
func (gm *GameManager) Results() (models.Results, error) {
	gm.mu.Lock()
	promoted := gm.promoteLocked()
	if gm.game.Status != models.StatusFinished {
		gm.mu.Unlock()
		gm.finishPromotion(promoted)
		return models.Results{}, models.ErrResultsNotReady
	}
	votes := make([]models.Vote, len(gm.game.Votes))
	copy(votes, gm.game.Votes)
	gm.mu.Unlock()
	gm.finishPromotion(promoted)
	return ComputeResults(votes), nil
}

// promoteLocked applies the time-based VOTING -> FINISHED promotion.
// Idempotent, safe to run redundantly from any caller. Returns whether
// a promotion happened; the caller persists and broadcasts it after
// unlocking, via finishPromotion.
func (gm *GameManager) promoteLocked() bool {
	if gm.game.Status != models.StatusVoting || gm.game.StartTime == nil {
		return false
	}
	if gm.now()-*gm.game.StartTime < gm.game.DurationMs {
		return false
	}
	gm.game.Status = models.StatusFinished
	log.Info().Msg("voting window elapsed, game finished")
	return true
}

// finishPromotion persists and broadcasts a promotion observed by any
// path, tick or request. Promotion happens at most once per game, so
// the finished broadcast fires exactly once.
func (gm *GameManager) finishPromotion(promoted bool) {
	if !promoted {
		return
	}
	gm.persist()
	gm.broadcastState()
}

// persist writes a snapshot of the current record through to the store,
// outside the record lock. A store failure is logged but never fails
// the operation; the in-memory record remains authoritative.
func (gm *GameManager) persist() {
	gm.persistMu.Lock()
	defer gm.persistMu.Unlock()

	gm.mu.Lock()
	snapshot := gm.game.Clone()
	gm.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gm.Store.Save(ctx, snapshot); err != nil {
		log.Warn().Err(err).Msg("store save failed, serving from memory")
	}
}

// broadcastState pushes the current snapshots to all observers: the
// public state to everyone, the full state to the admin room. Called
// after every state-changing operation and after tick promotions.
func (gm *GameManager) broadcastState() {
	gm.mu.Lock()
	public := models.PublicState{
		Status:     gm.game.Status,
		StartTime:  gm.game.StartTime,
		DurationMs: gm.game.DurationMs,
		ServerTime: gm.now(),
	}
	snapshot := gm.game.Clone()
	gm.mu.Unlock()

	gm.Hub.BroadcastAll("gameStateChanged", public)
	gm.Hub.BroadcastAdmins("adminGameState", models.AdminState{Game: snapshot, VoteCount: len(snapshot.Votes)})
}

func (gm *GameManager) now() int64 {
	return gm.Clock.Now().UnixMilli()
}
