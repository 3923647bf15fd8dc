package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/portal/core/academic"
)

type profileStore struct {
	db *profileTable
}

var _ academic.ProfileStore = (*profileStore)(nil) // interface compliance check

func NewProfileStore(db *DB) *profileStore {
	return &profileStore{db: db.profiles}
}

func (s *profileStore) Read(_ context.Context, userID string) (academic.Profile, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	if prof, ok := s.db.t[userID]; ok {
		return prof, nil
	}
	return academic.Profile{}, academic.ErrProfileNotFound
}

func (s *profileStore) Write(_ context.Context, userID string, patch academic.ProfilePatch) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	prof := patch.Apply(s.db.t[userID])
	prof.UserID = userID
	prof.UpdatedAt = time.Now().UTC()
	s.db.t[userID] = prof
	return nil
}
