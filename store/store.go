// Package store persists the single live game record. Exactly one record
// exists at a time; reset deletes and recreates rather than updating in
// place so a stale ballot list can never survive.
package store

import (
	"context"

	"impressive-vote/models"
)

// GameStore is the durability boundary for the game record. The manager
// holds the authoritative copy in memory and writes through.
type GameStore interface {
	// Load returns the persisted game, or nil when none exists yet.
	Load(ctx context.Context) (*models.Game, error)
	// Save overwrites the live record with the given game.
	Save(ctx context.Context, game *models.Game) error
	// Reset discards every stored record and persists the fresh game.
	Reset(ctx context.Context, fresh *models.Game) error
}
