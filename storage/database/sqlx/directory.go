package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/directory"
)

const facultyColumns = "id, employee_id, first_name, last_name, email, department, position, is_active, synced_at"

type directoryRepository struct {
	db *sqlx.DB
}

var _ directory.Repository = (*directoryRepository)(nil) // interface compliance check

func NewDirectoryRepository(db *sqlx.DB) *directoryRepository {
	return &directoryRepository{db: db}
}

func (repo directoryRepository) QueryFaculty(ctx context.Context, filter *directory.QueryFilter, ordering []core.DBOrdering) ([]directory.Faculty, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		// faculty with first name, last name or email matching the search keyword
		if filter.Search != "" {
			where = append(where, "(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)")
			val := "%" + filter.Search + "%"
			args = append(args, val, val, val)
		}
		if filter.Department != "" {
			where = append(where, "department ILIKE ?")
			args = append(args, filter.Department)
		}
		if filter.IsActive != nil {
			where = append(where, "is_active = ?")
			args = append(args, *filter.IsActive)
		}
	}

	q := "SELECT " + facultyColumns + " FROM faculty"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	fs := make([]directory.Faculty, 0)
	if err := repo.db.SelectContext(ctx, &fs, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying faculty")
	}
	return fs, nil
}

func (repo directoryRepository) GetFaculty(ctx context.Context, id string) (directory.Faculty, error) {
	var f directory.Faculty
	err := repo.db.GetContext(ctx, &f, "SELECT "+facultyColumns+" FROM faculty WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return directory.Faculty{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Faculty{}, errors.Wrap(err, "getting faculty")
	}
	return f, nil
}

func (repo directoryRepository) UpsertFaculty(ctx context.Context, f directory.Faculty) error {
	q := `
		INSERT INTO faculty (` + facultyColumns + `)
		VALUES (:id, :employee_id, :first_name, :last_name, :email, :department, :position, :is_active, :synced_at)
		ON CONFLICT (id) DO UPDATE SET
			employee_id = EXCLUDED.employee_id,
			first_name  = EXCLUDED.first_name,
			last_name   = EXCLUDED.last_name,
			email       = EXCLUDED.email,
			department  = EXCLUDED.department,
			position    = EXCLUDED.position,
			is_active   = EXCLUDED.is_active,
			synced_at   = EXCLUDED.synced_at`
	if _, err := repo.db.NamedExecContext(ctx, q, f); err != nil {
		return errors.Wrap(err, "upserting faculty")
	}
	return nil
}

func (repo directoryRepository) FacultySchedule(ctx context.Context, facultyID string, period academic.Period) ([]directory.ScheduleSlot, error) {
	q := `
		SELECT id, faculty_id, subject_code, section, day_of_week, start_time, end_time, room, semester, school_year
		FROM schedule_slots
		WHERE faculty_id = $1 AND semester = $2 AND school_year = $3
		ORDER BY day_of_week, start_time`
	slots := make([]directory.ScheduleSlot, 0)
	if err := repo.db.SelectContext(ctx, &slots, q, facultyID, period.Semester, period.SchoolYear); err != nil {
		return nil, errors.Wrap(err, "querying schedule slots")
	}
	return slots, nil
}
