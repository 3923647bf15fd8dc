package directory

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/records"
)

var ErrNotFound = errors.New("faculty not found")

// OrderingFields maps the API ordering names to columns.
var OrderingFields = map[string]string{
	"lastName":   "last_name",
	"firstName":  "first_name",
	"department": "department",
	"email":      "email",
	"syncedAt":   "synced_at",
}

type (
	// Faculty is the local copy of an upstream faculty member.
	Faculty struct {
		ID         string      `db:"id" json:"id"`
		EmployeeID null.String `db:"employee_id" json:"employeeId"`
		FirstName  string      `db:"first_name" json:"firstName"`
		LastName   string      `db:"last_name" json:"lastName"`
		Email      null.String `db:"email" json:"email"`
		Department null.String `db:"department" json:"department"`
		Position   null.String `db:"position" json:"position"`
		IsActive   bool        `db:"is_active" json:"isActive"`
		SyncedAt   time.Time   `db:"synced_at" json:"syncedAt"`
	}

	// ScheduleSlot is a legacy timetable row that has not moved upstream yet.
	ScheduleSlot struct {
		ID          int64       `db:"id" json:"id"`
		FacultyID   string      `db:"faculty_id" json:"facultyId"`
		SubjectCode string      `db:"subject_code" json:"subjectCode"`
		Section     string      `db:"section" json:"section"`
		DayOfWeek   string      `db:"day_of_week" json:"dayOfWeek"`
		StartTime   string      `db:"start_time" json:"startTime"`
		EndTime     string      `db:"end_time" json:"endTime"`
		Room        null.String `db:"room" json:"room"`
		Semester    string      `db:"semester" json:"semester"`
		SchoolYear  string      `db:"school_year" json:"schoolYear"`
	}

	// QueryFilter fields are ANDed. Search is a case-insensitive match on names and email.
	QueryFilter struct {
		Search     string
		Department string
		IsActive   *bool
	}

	Repository interface {
		QueryFaculty(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Faculty, error)
		GetFaculty(ctx context.Context, id string) (Faculty, error) // ErrNotFound
		UpsertFaculty(ctx context.Context, f Faculty) error
		FacultySchedule(ctx context.Context, facultyID string, period academic.Period) ([]ScheduleSlot, error)
	}

	// Source lists the upstream faculty to pull.
	Source interface {
		FacultyList(ctx context.Context) ([]records.Raw, error)
	}

	PullResult struct {
		Total    int `json:"total"`
		Upserted int `json:"upserted"`
		Failed   int `json:"failed"`
	}
)

func (f Faculty) FullName() string {
	return core.CleanString(f.FirstName + " " + f.LastName)
}

// FacultyFromRaw maps an upstream faculty object; one without an id cannot be stored.
func FacultyFromRaw(raw records.Raw, now time.Time) (Faculty, error) {
	id := raw.String("id", "faculty_id")
	if id == "" {
		return Faculty{}, errors.New("faculty without id")
	}
	active, ok := raw.Bool("is_active", "active")
	if !ok {
		active = true
	}
	return Faculty{
		ID:         id,
		EmployeeID: nullString(raw.String("employee_id", "employee_number")),
		FirstName:  raw.String("first_name", "user.first_name"),
		LastName:   raw.String("last_name", "user.last_name"),
		Email:      nullString(raw.String("email", "user.email")),
		Department: nullString(raw.String("department.name", "department")),
		Position:   nullString(raw.String("position", "designation")),
		IsActive:   active,
		SyncedAt:   now.UTC(),
	}, nil
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
