// Package directory serves the faculty directory and legacy timetables kept in the local database.
package directory

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/records"
)

type Service struct {
	repo   Repository
	logger core.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Faculty, error) {
	ordering = core.CleanOrderings(ordering, OrderingFields)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "last_name", Ascending: true}, {Field: "first_name", Ascending: true}}
	}
	fs, err := svc.repo.QueryFaculty(ctx, filter, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "directory.repo.QueryFaculty")
	}
	return fs, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Faculty, error) {
	f, err := svc.repo.GetFaculty(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Faculty{}, &records.NotFoundError{Kind: "faculty", ID: id}
	}
	if err != nil {
		return Faculty{}, errors.Wrap(err, "directory.repo.GetFaculty")
	}
	return f, nil
}

// Schedule returns the faculty member's legacy timetable for period.
func (svc *Service) Schedule(ctx context.Context, facultyID string, period academic.Period) ([]ScheduleSlot, error) {
	if _, err := svc.Get(ctx, facultyID); err != nil {
		return nil, err
	}
	slots, err := svc.repo.FacultySchedule(ctx, facultyID, period)
	if err != nil {
		return nil, errors.Wrap(err, "directory.repo.FacultySchedule")
	}
	return slots, nil
}

// Pull copies the upstream faculty listing into the directory. Rows that fail are logged and skipped.
func (svc *Service) Pull(ctx context.Context, src Source) (PullResult, error) {
	rows, err := src.FacultyList(ctx)
	if err != nil {
		return PullResult{}, errors.Wrap(err, "directory.FacultyList")
	}

	res := PullResult{Total: len(rows)}
	now := svc.now()
	for _, raw := range rows {
		f, err := FacultyFromRaw(raw, now)
		if err == nil {
			err = svc.repo.UpsertFaculty(ctx, f)
		}
		if err != nil {
			res.Failed++
			svc.logger.Error("failed to upsert faculty", err, map[string]interface{}{"faculty_id": raw.String("id")})
			continue
		}
		res.Upserted++
	}
	svc.logger.Info("faculty sync completed", map[string]interface{}{"total": res.Total, "upserted": res.Upserted})
	return res, nil
}
