package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/academic"
)

type profileStore struct {
	db *sqlx.DB
}

var _ academic.ProfileStore = (*profileStore)(nil) // interface compliance check

func NewProfileStore(db *sqlx.DB) *profileStore {
	return &profileStore{db: db}
}

func (s profileStore) Read(ctx context.Context, userID string) (academic.Profile, error) {
	var prof academic.Profile
	err := s.db.GetContext(ctx, &prof,
		"SELECT user_id, semester, school_year, updated_at FROM user_profiles WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return academic.Profile{}, academic.ErrProfileNotFound
	}
	if err != nil {
		return academic.Profile{}, errors.Wrap(err, "reading profile")
	}
	return prof, nil
}

// Write upserts the profile; COALESCE keeps the stored value of every nil patch field.
func (s profileStore) Write(ctx context.Context, userID string, patch academic.ProfilePatch) error {
	q := `
		INSERT INTO user_profiles (user_id, semester, school_year, updated_at)
		VALUES ($1, COALESCE($2::text, ''), COALESCE($3::text, ''), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			semester    = COALESCE($2::text, user_profiles.semester),
			school_year = COALESCE($3::text, user_profiles.school_year),
			updated_at  = NOW()`
	if _, err := s.db.ExecContext(ctx, q, userID, patch.Semester, patch.SchoolYear); err != nil {
		return errors.Wrap(err, "writing profile")
	}
	return nil
}
