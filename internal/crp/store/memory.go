package store

import (
	"context"
	"sort"
	"sync"

	"crpstore/internal/crp/models"
)

// MemoryStore keeps records in process memory. Used for tests and the
// memory:// substrate.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]map[string]string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string]string)}
}

func (s *MemoryStore) InsertAll(ctx context.Context, records []models.CRP) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check the whole batch before touching state.
	batch := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := s.users[r.User][r.Challenge]; ok {
			return uniquenessViolation(r.User, r.Challenge)
		}
		if _, ok := batch[r.Key()]; ok {
			return uniquenessViolation(r.User, r.Challenge)
		}
		batch[r.Key()] = struct{}{}
	}

	for _, r := range records {
		challenges, ok := s.users[r.User]
		if !ok {
			challenges = make(map[string]string)
			s.users[r.User] = challenges
		}
		challenges[r.Challenge] = r.Response
	}
	return nil
}

func (s *MemoryStore) QueryByUser(ctx context.Context, user string) ([]models.CRP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	challenges := s.users[user]
	records := make([]models.CRP, 0, len(challenges))
	for challenge, response := range challenges {
		records = append(records, models.CRP{User: user, Challenge: challenge, Response: response})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Challenge < records[j].Challenge })
	return records, nil
}

// Health always succeeds for the in-memory store.
func (s *MemoryStore) Health(context.Context) error {
	return nil
}
