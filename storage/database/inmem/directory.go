package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/directory"
)

type directoryRepository struct {
	db *facultyTable
}

var _ directory.Repository = (*directoryRepository)(nil) // interface compliance check

func NewDirectoryRepository(db *DB) *directoryRepository {
	return &directoryRepository{db: db.faculty}
}

// AddScheduleSlot seeds a legacy timetable row.
func (repo *directoryRepository) AddScheduleSlot(slot directory.ScheduleSlot) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	slot.ID = int64(len(repo.db.slots) + 1)
	repo.db.slots = append(repo.db.slots, slot)
}

func (repo *directoryRepository) QueryFaculty(_ context.Context, filter *directory.QueryFilter, ordering []core.DBOrdering) ([]directory.Faculty, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	fs := make([]directory.Faculty, 0, len(repo.db.t))
	for _, f := range repo.db.t {
		if filter != nil && !matches(f, filter) {
			continue
		}
		fs = append(fs, f)
	}

	sort.SliceStable(fs, func(i, j int) bool {
		for _, ord := range ordering {
			a, b := column(fs[i], ord.Field), column(fs[j], ord.Field)
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return fs[i].ID < fs[j].ID
	})
	return fs, nil
}

func matches(f directory.Faculty, filter *directory.QueryFilter) bool {
	if s := strings.ToLower(filter.Search); s != "" {
		if !strings.Contains(strings.ToLower(f.FirstName), s) &&
			!strings.Contains(strings.ToLower(f.LastName), s) &&
			!strings.Contains(strings.ToLower(f.Email.String), s) {
			return false
		}
	}
	if filter.Department != "" && !strings.EqualFold(filter.Department, f.Department.String) {
		return false
	}
	if filter.IsActive != nil && *filter.IsActive != f.IsActive {
		return false
	}
	return true
}

func column(f directory.Faculty, col string) string {
	switch col {
	case "first_name":
		return strings.ToLower(f.FirstName)
	case "last_name":
		return strings.ToLower(f.LastName)
	case "email":
		return f.Email.String
	case "department":
		return f.Department.String
	case "synced_at":
		return f.SyncedAt.UTC().Format("2006-01-02T15:04:05.000000000")
	}
	return f.ID
}

func (repo *directoryRepository) GetFaculty(_ context.Context, id string) (directory.Faculty, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if f, ok := repo.db.t[id]; ok {
		return f, nil
	}
	return directory.Faculty{}, directory.ErrNotFound
}

func (repo *directoryRepository) UpsertFaculty(_ context.Context, f directory.Faculty) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.t[f.ID] = f
	return nil
}

func (repo *directoryRepository) FacultySchedule(_ context.Context, facultyID string, period academic.Period) ([]directory.ScheduleSlot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	slots := make([]directory.ScheduleSlot, 0)
	for _, s := range repo.db.slots {
		if s.FacultyID == facultyID && s.Semester == period.Semester && s.SchoolYear == period.SchoolYear {
			slots = append(slots, s)
		}
	}
	return slots, nil
}
