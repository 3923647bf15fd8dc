package records

import (
	"strings"

	"github.com/volatiletech/null/v8"
)

type (
	// EnrollmentRecord is one student's enrollment in one class, with its term grades.
	// Absent grades and remarks serialize as null.
	EnrollmentRecord struct {
		EnrollmentID string       `json:"enrollmentId"`
		StudentID    string       `json:"studentId"`
		StudentName  string       `json:"studentName"`
		ClassID      string       `json:"classId"`
		CourseID     string       `json:"courseId"`
		Status       string       `json:"status"`
		Semester     string       `json:"semester"`
		SchoolYear   string       `json:"schoolYear"`
		PrelimGrade  null.Float64 `json:"prelimGrade"`
		MidtermGrade null.Float64 `json:"midtermGrade"`
		FinalsGrade  null.Float64 `json:"finalsGrade"`
		TotalAverage null.Float64 `json:"totalAverage"`
		IsFinalized  bool         `json:"isFinalized"`
		Remarks      null.String  `json:"remarks"`
	}

	Student struct {
		ID        string `json:"id"`
		StudentID string `json:"studentId"`
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		FullName  string `json:"fullName"`
		Course    string `json:"course"`
		YearLevel string `json:"yearLevel"`
	}
)

// NormalizeEnrollment flattens an upstream enrollment, whose grades may sit at the top level or under "grade(s)".
func NormalizeEnrollment(raw Raw) EnrollmentRecord {
	raw = Unwrap(raw)
	rec := EnrollmentRecord{
		EnrollmentID: raw.String("id", "enrollment_id"),
		StudentID:    raw.String("student_id", "student.id"),
		StudentName:  studentName(raw.Object("student")),
		ClassID:      raw.String("class_id", "class.id"),
		CourseID:     raw.String("course_id", "program_id", "course.id", "program.id", "student.course_id"),
		Status:       strings.ToLower(raw.StringOr("enrolled", "status", "enrollment_status")),
		Semester:     orNA(NormalizeSemester(raw.String("semester", "class.semester"))),
		SchoolYear:   raw.StringOr(NA, "school_year", "class.school_year", "formatted_academic_year"),
		PrelimGrade:  nullFloat(raw, "prelim_grade", "grades.prelim", "grade.prelim_grade", "grade.prelim"),
		MidtermGrade: nullFloat(raw, "midterm_grade", "grades.midterm", "grade.midterm_grade", "grade.midterm"),
		FinalsGrade:  nullFloat(raw, "finals_grade", "final_grade", "grades.finals", "grade.finals_grade", "grade.finals"),
		TotalAverage: nullFloat(raw, "total_average", "average", "grades.total_average", "grade.total_average"),
	}
	rec.IsFinalized, _ = raw.Bool("is_finalized", "grades_finalized", "grade.is_finalized", "grades.is_finalized")
	if s := raw.String("remarks", "grade.remarks", "grades.remarks"); s != "" {
		rec.Remarks = null.StringFrom(s)
	}
	return rec
}

// NormalizeStudent flattens an upstream student profile.
func NormalizeStudent(raw Raw) Student {
	raw = Unwrap(raw)
	first := raw.String("first_name", "user.first_name")
	last := raw.String("last_name", "user.last_name")
	return Student{
		ID:        raw.String("id"),
		StudentID: raw.StringOr(NA, "student_id", "student_number"),
		Email:     raw.StringOr(NA, "email", "user.email"),
		FirstName: orNA(first),
		LastName:  orNA(last),
		FullName:  orNA(studentName(raw)),
		Course:    raw.StringOr(NA, "course.name", "program.name", "course"),
		YearLevel: raw.StringOr(NA, "year_level", "grade_level"),
	}
}

func studentName(raw Raw) string {
	if n := raw.String("full_name", "name"); n != "" {
		return n
	}
	return strings.TrimSpace(raw.String("first_name", "user.first_name") + " " + raw.String("last_name", "user.last_name"))
}

func nullFloat(raw Raw, paths ...string) null.Float64 {
	if f, ok := raw.Float(paths...); ok {
		return null.Float64From(f)
	}
	return null.Float64{}
}
