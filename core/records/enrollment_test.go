package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEnrollment(t *testing.T) {
	raw := mustRaw(t, `{"id": 7, "student_id": "S1", "class_id": 42,
		"student": {"first_name": "Ada", "last_name": "Lovelace"},
		"grade": {"prelim_grade": "88.5", "midterm_grade": null, "is_finalized": 1}}`)

	got := NormalizeEnrollment(raw)
	assert.Equal(t, "7", got.EnrollmentID)
	assert.Equal(t, "S1", got.StudentID)
	assert.Equal(t, "42", got.ClassID)
	assert.Equal(t, "Ada Lovelace", got.StudentName)
	assert.Equal(t, "enrolled", got.Status)
	assert.True(t, got.PrelimGrade.Valid)
	assert.Equal(t, 88.5, got.PrelimGrade.Float64)
	assert.False(t, got.MidtermGrade.Valid)
	assert.True(t, got.IsFinalized)

	b, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]interface{}
	_ = json.Unmarshal(b, &out)
	for _, k := range []string{"midtermGrade", "finalsGrade", "totalAverage", "remarks"} {
		v, ok := out[k]
		if !ok || v != nil {
			t.Errorf("%s = %v (present %v), want null", k, v, ok)
		}
	}
}

func TestNormalizeStudent_Empty(t *testing.T) {
	got := NormalizeStudent(Raw{})
	want := Student{StudentID: NA, Email: NA, FirstName: NA, LastName: NA, FullName: NA, Course: NA, YearLevel: NA}
	if got != want {
		t.Errorf("NormalizeStudent({}) = %+v, want %+v", got, want)
	}
}

func TestNormalizeAcademicSettings(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want AcademicSettings
	}{
		{
			name: "empty",
			raw:  `{}`,
			want: AcademicSettings{Semesters: []string{"1", "2", "summer"}, SchoolYears: []string{}},
		},
		{
			name: "enveloped with object lists",
			raw: `{"data": {"current_semester": "2nd Semester", "current_school_year": "2024-2025",
				"semesters": [{"value": "1st"}, {"value": "2nd"}], "school_years": ["2023-2024", "2024-2025"]}}`,
			want: AcademicSettings{
				CurrentSemester: "2", CurrentSchoolYear: "2024-2025",
				Semesters: []string{"1", "2"}, SchoolYears: []string{"2023-2024", "2024-2025"},
			},
		},
		{
			name: "current year only",
			raw:  `{"semester": 1, "school_year": "2025"}`,
			want: AcademicSettings{
				CurrentSemester: "1", CurrentSchoolYear: "2025",
				Semesters: []string{"1", "2", "summer"}, SchoolYears: []string{"2025"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAcademicSettings(mustRaw(t, tt.raw)))
		})
	}
}

func TestNormalizeSemester(t *testing.T) {
	tests := map[string]string{
		"1": "1", "1st": "1", "First Semester": "1", " 2nd sem ": "2", "Second": "2",
		"Summer": "summer", "3": "summer", "": "", "Trimester": "trimester",
	}
	for in, want := range tests {
		if got := NormalizeSemester(in); got != want {
			t.Errorf("NormalizeSemester(%q) = %q, want %q", in, got, want)
		}
	}
}
