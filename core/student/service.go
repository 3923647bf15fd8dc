package student

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/records"
)

const StatusNotEnrolled = "not-enrolled"

type (
	Upstream interface {
		FindStudent(ctx context.Context, email, studentID string) (records.Raw, error)
		StudentEnrollments(ctx context.Context, studentID, semester, schoolYear string) ([]records.Raw, error)
		StudentSchedule(ctx context.Context, studentID, semester, schoolYear string) ([]records.Raw, error)
	}

	ValidateInput struct {
		Email     string `json:"email" validate:"required,email"`
		StudentID string `json:"studentId" validate:"required,max=64"`
	}

	Validation struct {
		Valid   bool             `json:"valid"`
		Student *records.Student `json:"student,omitempty"`
	}

	EnrollmentStatus struct {
		IsEnrolled bool   `json:"isEnrolled"`
		Status     string `json:"status"`
		Semester   string `json:"semester"`
		SchoolYear string `json:"schoolYear"`
		CourseID   string `json:"courseId"`
	}

	// ScheduleItem is one meeting slot of one of the student's classes.
	ScheduleItem struct {
		ClassID     string `json:"classId"`
		SubjectCode string `json:"subjectCode"`
		SubjectName string `json:"subjectName"`
		Section     string `json:"section"`
		records.ScheduleEntry
	}

	Service struct {
		upstream Upstream
		logger   core.Logger
	}
)

func NewService(up Upstream, logger core.Logger) *Service {
	return &Service{upstream: up, logger: logger}
}

// Validate checks that the email and student number belong to the same upstream student.
func (svc *Service) Validate(ctx context.Context, in ValidateInput) (Validation, error) {
	raw, err := svc.upstream.FindStudent(ctx, core.CleanString(in.Email, true), core.CleanString(in.StudentID))
	if err != nil {
		var nf *records.NotFoundError
		if errors.As(err, &nf) {
			return Validation{Valid: false}, nil
		}
		return Validation{}, errors.Wrap(err, "student.upstream.FindStudent")
	}

	st := records.NormalizeStudent(raw)
	if !strings.EqualFold(st.Email, core.CleanString(in.Email)) || st.StudentID != core.CleanString(in.StudentID) {
		return Validation{Valid: false}, nil
	}
	return Validation{Valid: true, Student: &st}, nil
}

// EnrollmentStatus reports whether the student has an enrollment in period.
func (svc *Service) EnrollmentStatus(ctx context.Context, studentID string, period academic.Period) (EnrollmentStatus, error) {
	status := EnrollmentStatus{
		Status:     StatusNotEnrolled,
		Semester:   period.Semester,
		SchoolYear: period.SchoolYear,
	}

	rows, err := svc.upstream.StudentEnrollments(ctx, studentID, period.Semester, period.SchoolYear)
	if err != nil {
		var nf *records.NotFoundError
		if errors.As(err, &nf) {
			return status, nil
		}
		return EnrollmentStatus{}, errors.Wrap(err, "student.upstream.StudentEnrollments")
	}

	for _, row := range rows {
		enr := records.NormalizeEnrollment(row)
		if enr.Status == "dropped" || enr.Status == "withdrawn" || enr.Status == "cancelled" {
			continue
		}
		status.IsEnrolled = true
		status.Status = enr.Status
		status.CourseID = enr.CourseID
		break
	}
	return status, nil
}

// Grades lists the student's enrollments, with grades, in period.
func (svc *Service) Grades(ctx context.Context, studentID string, period academic.Period) ([]records.EnrollmentRecord, error) {
	rows, err := svc.upstream.StudentEnrollments(ctx, studentID, period.Semester, period.SchoolYear)
	if err != nil {
		return nil, errors.Wrap(err, "student.upstream.StudentEnrollments")
	}
	out := make([]records.EnrollmentRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, records.NormalizeEnrollment(row))
	}
	return out, nil
}

// Schedule flattens the meeting slots of every class the student attends in period.
func (svc *Service) Schedule(ctx context.Context, studentID string, period academic.Period) ([]ScheduleItem, error) {
	rows, err := svc.upstream.StudentSchedule(ctx, studentID, period.Semester, period.SchoolYear)
	if err != nil {
		return nil, errors.Wrap(err, "student.upstream.StudentSchedule")
	}

	items := make([]ScheduleItem, 0, len(rows))
	for _, row := range rows {
		// rows are either classes carrying their schedules, or enrollments wrapping the class
		cls := row
		if inner := row.Object("class"); len(inner) > 0 {
			cls = inner
		}
		info := records.NormalizeClassInfo(cls)
		classID := cls.String("id", "class_id")
		entries := records.NormalizeSchedule(cls)
		if len(entries) == 0 && row.String("day_of_week", "day") != "" {
			entries = records.NormalizeSchedule(records.Raw{"schedules": []interface{}{map[string]interface{}(row)}})
		}
		for _, e := range entries {
			items = append(items, ScheduleItem{
				ClassID:       classID,
				SubjectCode:   info.SubjectCode,
				SubjectName:   info.SubjectName,
				Section:       info.Section,
				ScheduleEntry: e,
			})
		}
	}
	return items, nil
}
