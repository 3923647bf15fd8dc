package academic

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/records"
)

const defaultPersistTimeout = 5 * time.Second

// Resolver decides which academic period a request is scoped to.
type Resolver struct {
	profiles ProfileStore
	settings SettingsSource
	logger   core.Logger

	PersistTimeout time.Duration
	wg             sync.WaitGroup
}

func NewResolver(profiles ProfileStore, settings SettingsSource, logger core.Logger) *Resolver {
	return &Resolver{
		profiles:       profiles,
		settings:       settings,
		logger:         logger,
		PersistTimeout: defaultPersistTimeout,
	}
}

// Resolve picks, in order: both query params, the caller's stored profile, the upstream current settings.
// A query period that differs from the stored one is saved to the profile in the background.
func (r *Resolver) Resolve(ctx context.Context, userID string, q PeriodQuery) (Resolution, error) {
	qp, err := ValidateQuery(q)
	if err != nil {
		return Resolution{}, err
	}
	if qp.Complete() {
		r.persist(userID, qp)
		return Resolution{Period: qp, Source: SourceQuery}, nil
	}

	if userID != "" {
		prof, err := r.profiles.Read(ctx, userID)
		switch {
		case err == nil:
			if p := prof.Period(); p.Complete() {
				return Resolution{Period: p, Source: SourceProfile}, nil
			}
		case !errors.Is(err, ErrProfileNotFound):
			r.logger.Warn("reading profile period", err, map[string]interface{}{"user_id": userID})
		}
	}

	as, err := r.Settings(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if p := (Period{Semester: as.CurrentSemester, SchoolYear: as.CurrentSchoolYear}); p.Complete() {
		return Resolution{Period: p, Source: SourceUpstream, Settings: &as}, nil
	}
	return Resolution{}, core.NewBadRequest("Missing academic period")
}

// Settings fetches and normalizes the upstream current settings.
func (r *Resolver) Settings(ctx context.Context) (records.AcademicSettings, error) {
	raw, err := r.settings.CurrentSettings(ctx)
	if err != nil {
		return records.AcademicSettings{}, errors.Wrap(err, "academic.CurrentSettings")
	}
	return records.NormalizeAcademicSettings(raw), nil
}

// AcademicSettings returns the settings served alongside period-scoped responses.
// When the upstream cannot provide them the resolved period stands in.
func (r *Resolver) AcademicSettings(ctx context.Context, res Resolution) records.AcademicSettings {
	if res.Settings != nil {
		return *res.Settings
	}
	as, err := r.Settings(ctx)
	if err != nil {
		r.logger.Warn("fetching academic settings", err)
		return records.AcademicSettings{
			CurrentSemester:   res.Period.Semester,
			CurrentSchoolYear: res.Period.SchoolYear,
			Semesters:         append([]string(nil), core.Semesters...),
			SchoolYears:       []string{res.Period.SchoolYear},
		}
	}
	return as
}

// Store saves p as the caller's period.
func (r *Resolver) Store(ctx context.Context, userID string, p Period) error {
	if err := r.profiles.Write(ctx, userID, PatchFor(p)); err != nil {
		return errors.Wrap(err, "academic.profiles.Write")
	}
	return nil
}

// Stored returns the caller's profile; a caller without one gets an empty profile.
func (r *Resolver) Stored(ctx context.Context, userID string) (Profile, error) {
	prof, err := r.profiles.Read(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return Profile{UserID: userID}, nil
	}
	if err != nil {
		return Profile{}, errors.Wrap(err, "academic.profiles.Read")
	}
	return prof, nil
}

// Drain waits for background profile writes.
func (r *Resolver) Drain() {
	r.wg.Wait()
}

func (r *Resolver) persist(userID string, p Period) {
	if userID == "" {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		// the inbound request may be gone by now
		ctx, cancel := context.WithTimeout(context.Background(), r.PersistTimeout)
		defer cancel()

		prof, err := r.profiles.Read(ctx, userID)
		if err == nil && prof.Period() == p {
			return
		}
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			r.logger.Warn("reading profile period", err, map[string]interface{}{"user_id": userID})
		}
		if err := r.profiles.Write(ctx, userID, PatchFor(p)); err != nil {
			r.logger.Warn("persisting profile period", err, map[string]interface{}{"user_id": userID})
		}
	}()
}

// ValidateQuery normalizes the query period. Blank params are not errors; malformed ones are.
func ValidateQuery(q PeriodQuery) (Period, error) {
	p := Period{
		Semester:   records.NormalizeSemester(q.Semester),
		SchoolYear: strings.TrimSpace(q.SchoolYear),
	}

	var flds []core.FieldError
	if p.Semester != "" && !core.IsSemester(p.Semester) {
		flds = append(flds, core.FieldError{Field: "semester", Error: "must be one of: 1, 2, summer"})
	}
	if p.SchoolYear != "" && !core.IsSchoolYear(p.SchoolYear) {
		flds = append(flds, core.FieldError{Field: "schoolYear", Error: "must be a year (YYYY) or a year range (YYYY-YYYY)"})
	}
	if len(flds) > 0 {
		return Period{}, core.NewValidationError(errors.New("invalid academic period"), flds...)
	}
	return p, nil
}
