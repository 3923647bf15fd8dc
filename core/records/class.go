package records

import (
	"strings"
)

type (
	ClassInfo struct {
		SubjectCode       string `json:"subjectCode"`
		SubjectName       string `json:"subjectName"`
		Section           string `json:"section"`
		Semester          string `json:"semester"`
		SemesterFormatted string `json:"semesterFormatted"`
		SchoolYear        string `json:"schoolYear"`
		GradeLevel        string `json:"gradeLevel"`
		Track             string `json:"track"`
		Strand            string `json:"strand"`
	}

	Room struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Building string `json:"building"`
	}

	ScheduleEntry struct {
		DayOfWeek string `json:"dayOfWeek"`
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
		Room      Room   `json:"room"`
	}

	EnrollmentStatus struct {
		MaximumSlots   int  `json:"maximumSlots"`
		EnrolledCount  int  `json:"enrolledCount"`
		IsFull         bool `json:"isFull"`
		AvailableSlots int  `json:"availableSlots"`
	}

	// ClassRecord is the read-only projection of an upstream class.
	ClassRecord struct {
		ID string `json:"id"`
		ClassInfo
		EnrollmentStatus
		Schedules      []ScheduleEntry `json:"schedules"`
		Settings       ClassSettings   `json:"settings"`
		FacultyID      string          `json:"facultyId"`
		Classification string          `json:"classification"`
	}
)

const (
	ClassificationSHS     = "shs"
	ClassificationCollege = "college"
)

// NormalizeSemester maps the spellings the upstream uses ("1st", "First Semester", 2, "Summer") to "1", "2" or "summer".
// Unknown values are returned trimmed and lowered.
func NormalizeSemester(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " semester")
	s = strings.TrimSuffix(s, " sem")
	switch s {
	case "1", "1st", "first":
		return "1"
	case "2", "2nd", "second":
		return "2"
	case "summer", "3", "3rd", "third", "midyear", "mid-year":
		return "summer"
	}
	return s
}

// FormatSemester returns the display label of a normalized semester.
func FormatSemester(s string) string {
	switch s {
	case "1":
		return "1st Semester"
	case "2":
		return "2nd Semester"
	case "summer":
		return "Summer"
	case "":
		return NA
	}
	return s
}

// NormalizeClassInfo flattens the subject, section and period fields of a class.
// school_year wins over formatted_academic_year; absent fields are "N/A".
func NormalizeClassInfo(raw Raw) ClassInfo {
	sem := NormalizeSemester(raw.String("semester", "academic_period.semester", "period.semester"))
	return ClassInfo{
		SubjectCode:       raw.StringOr(NA, "subject.code", "subject.subject_code", "subject_code"),
		SubjectName:       raw.StringOr(NA, "subject.name", "subject.subject_name", "subject.description", "subject_name"),
		Section:           raw.StringOr(NA, "section.name", "section.section_name", "section_name", "section"),
		Semester:          orNA(sem),
		SemesterFormatted: FormatSemester(sem),
		SchoolYear:        raw.StringOr(NA, "school_year", "formatted_academic_year", "academic_period.school_year"),
		GradeLevel:        raw.StringOr(NA, "grade_level", "section.grade_level"),
		Track:             raw.StringOr(NA, "shs_track.name", "track.name", "section.track.name", "track"),
		Strand:            raw.StringOr(NA, "shs_strand.name", "strand.name", "section.strand.name", "strand"),
	}
}

// NormalizeSchedule returns the class's meeting slots; an absent schedule block is an empty list.
func NormalizeSchedule(raw Raw) []ScheduleEntry {
	rows := raw.Objects("schedules", "schedule", "class_schedules")
	entries := make([]ScheduleEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ScheduleEntry{
			DayOfWeek: row.StringOr(NA, "day_of_week", "day"),
			StartTime: row.StringOr(NA, "start_time", "time_start"),
			EndTime:   row.StringOr(NA, "end_time", "time_end"),
			Room: Room{
				ID:       row.String("room.id", "room_id"),
				Name:     row.StringOr(NA, "room.name", "room.room_name", "room_name", "room"),
				Building: row.StringOr(NA, "room.building.name", "room.building", "building"),
			},
		})
	}
	return entries
}

// ComputeEnrollmentStatus derives the slot counters; availableSlots is never negative.
func ComputeEnrollmentStatus(raw Raw) EnrollmentStatus {
	maxSlots, _ := raw.Int("maximum_slots", "max_slots", "capacity")
	enrolled, _ := raw.Int("enrolled_count", "enrolled_students_count", "enrollments_count", "current_enrollment")
	if maxSlots < 0 {
		maxSlots = 0
	}
	if enrolled < 0 {
		enrolled = 0
	}

	full, ok := raw.Bool("is_full")
	if !ok {
		full = maxSlots > 0 && enrolled >= maxSlots
	}

	avail := 0
	if !full && maxSlots > enrolled {
		avail = maxSlots - enrolled
	}
	return EnrollmentStatus{
		MaximumSlots:   maxSlots,
		EnrolledCount:  enrolled,
		IsFull:         full,
		AvailableSlots: avail,
	}
}

// Classification returns "shs" or "college".
// When the upstream omits it, a class carrying a senior high track is SHS.
func Classification(raw Raw) string {
	switch c := strings.ToLower(raw.String("classification", "section.classification")); c {
	case "shs", "senior high", "senior high school", "senior_high", "senior-high":
		return ClassificationSHS
	case "":
		if raw.String("shs_track_id", "shs_track.id") != "" {
			return ClassificationSHS
		}
		return ClassificationCollege
	default:
		return ClassificationCollege
	}
}

// NormalizeClass builds the full ClassRecord of an upstream class object.
func NormalizeClass(raw Raw) ClassRecord {
	raw = Unwrap(raw)
	return ClassRecord{
		ID:               raw.String("id", "class_id"),
		ClassInfo:        NormalizeClassInfo(raw),
		EnrollmentStatus: ComputeEnrollmentStatus(raw),
		Schedules:        NormalizeSchedule(raw),
		Settings:         NormalizeSettings(raw.Value("settings")),
		FacultyID:        raw.String("faculty_id", "faculty.id"),
		Classification:   Classification(raw),
	}
}

func orNA(s string) string {
	if s == "" {
		return NA
	}
	return s
}
