package academic

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/portal/core/records"
)

var ErrProfileNotFound = errors.New("profile not found")

type (
	// Period is the (semester, school year) pair that scopes class, enrollment and grade queries.
	Period struct {
		Semester   string `json:"semester"`
		SchoolYear string `json:"schoolYear"`
	}

	// PeriodQuery holds the caller-supplied period, straight from the query string.
	PeriodQuery struct {
		Semester   string `query:"semester"`
		SchoolYear string `query:"schoolYear"`
	}

	// Profile is the metadata kept per caller; only the stored period is used.
	Profile struct {
		UserID     string    `db:"user_id" json:"userId"`
		Semester   string    `db:"semester" json:"semester"`
		SchoolYear string    `db:"school_year" json:"schoolYear"`
		UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
	}

	// ProfilePatch updates the non-nil fields only.
	ProfilePatch struct {
		Semester   *string
		SchoolYear *string
	}

	ProfileStore interface {
		Read(ctx context.Context, userID string) (Profile, error) // ErrProfileNotFound when absent
		Write(ctx context.Context, userID string, patch ProfilePatch) error
	}

	// SettingsSource provides the institution-wide current settings.
	SettingsSource interface {
		CurrentSettings(ctx context.Context) (records.Raw, error)
	}

	Source string

	Resolution struct {
		Period Period
		Source Source
		// Settings is set when the period came from the upstream settings.
		Settings *records.AcademicSettings
	}
)

const (
	SourceQuery    Source = "query"
	SourceProfile  Source = "profile"
	SourceUpstream Source = "upstream"
)

func (p Period) Complete() bool {
	return p.Semester != "" && p.SchoolYear != ""
}

func (p Profile) Period() Period {
	return Period{Semester: p.Semester, SchoolYear: p.SchoolYear}
}

// Apply returns prof with patch's non-nil fields set.
func (patch ProfilePatch) Apply(prof Profile) Profile {
	if patch.Semester != nil {
		prof.Semester = *patch.Semester
	}
	if patch.SchoolYear != nil {
		prof.SchoolYear = *patch.SchoolYear
	}
	return prof
}

func PatchFor(p Period) ProfilePatch {
	return ProfilePatch{Semester: &p.Semester, SchoolYear: &p.SchoolYear}
}
