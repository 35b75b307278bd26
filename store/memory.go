package store

import (
	"context"
	"sync"

	"impressive-vote/models"
)

// MemoryStore is the in-process fallback used when MongoDB is not
// configured or unreachable. Single-instance only.
type MemoryStore struct {
	mu   sync.Mutex
	game *models.Game
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return nil, nil
	}
	return s.game.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = game.Clone()
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context, fresh *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = fresh.Clone()
	return nil
}
