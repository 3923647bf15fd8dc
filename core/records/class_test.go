package records

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustRaw(t *testing.T, s string) Raw {
	t.Helper()
	raw, err := DecodeObject([]byte(s))
	if err != nil {
		t.Fatalf("DecodeObject() error = %v", err)
	}
	return raw
}

func TestNormalizeClassInfo_Empty(t *testing.T) {
	info := NormalizeClassInfo(Raw{})

	v := reflect.ValueOf(info)
	for i := 0; i < v.NumField(); i++ {
		if got := v.Field(i).String(); got != NA {
			t.Errorf("NormalizeClassInfo({}).%s = %q, want %q", v.Type().Field(i).Name, got, NA)
		}
	}
}

func TestNormalizeClassInfo(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ClassInfo
	}{
		{
			name: "nested college class",
			raw: `{"subject": {"code": "CS101", "name": "Intro to Computing"}, "section": {"name": "BSCS-1A"},
				"semester": "1st", "school_year": "2024-2025", "formatted_academic_year": "A.Y. 2024-2025"}`,
			want: ClassInfo{
				SubjectCode: "CS101", SubjectName: "Intro to Computing", Section: "BSCS-1A", Semester: "1",
				SemesterFormatted: "1st Semester", SchoolYear: "2024-2025", GradeLevel: NA, Track: NA, Strand: NA,
			},
		},
		{
			name: "formatted year fallback, flat fields",
			raw: `{"subject_code": "ENG1", "subject_name": "English", "section_name": "G11-A", "semester": 2,
				"formatted_academic_year": "2025", "grade_level": 11, "shs_track": {"name": "Academic"},
				"shs_strand": {"name": "STEM"}}`,
			want: ClassInfo{
				SubjectCode: "ENG1", SubjectName: "English", Section: "G11-A", Semester: "2",
				SemesterFormatted: "2nd Semester", SchoolYear: "2025", GradeLevel: "11", Track: "Academic", Strand: "STEM",
			},
		},
		{
			name: "summer and null fields",
			raw:  `{"subject": null, "semester": "Summer", "school_year": null, "formatted_academic_year": "2023"}`,
			want: ClassInfo{
				SubjectCode: NA, SubjectName: NA, Section: NA, Semester: "summer",
				SemesterFormatted: "Summer", SchoolYear: "2023", GradeLevel: NA, Track: NA, Strand: NA,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeClassInfo(mustRaw(t, tt.raw)); got != tt.want {
				t.Errorf("NormalizeClassInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeSchedule(t *testing.T) {
	if got := NormalizeSchedule(Raw{}); got == nil || len(got) != 0 {
		t.Errorf("NormalizeSchedule({}) = %#v, want empty non-nil slice", got)
	}

	raw := mustRaw(t, `{"schedules": [
		{"day_of_week": "Monday", "start_time": "08:00", "end_time": "09:30",
		 "room": {"id": 3, "name": "R-301", "building": {"name": "Main"}}},
		{"day": "Wednesday", "room_id": "4"},
		"garbage"
	]}`)
	want := []ScheduleEntry{
		{DayOfWeek: "Monday", StartTime: "08:00", EndTime: "09:30", Room: Room{ID: "3", Name: "R-301", Building: "Main"}},
		{DayOfWeek: "Wednesday", StartTime: NA, EndTime: NA, Room: Room{ID: "4", Name: NA, Building: NA}},
	}
	assert.Equal(t, want, NormalizeSchedule(raw))

	// the schedule list must serialize as [] rather than null
	b, _ := json.Marshal(NormalizeClass(Raw{}))
	var out map[string]interface{}
	_ = json.Unmarshal(b, &out)
	if _, ok := out["schedules"].([]interface{}); !ok {
		t.Errorf("schedules = %v, want []", out["schedules"])
	}
}

func TestComputeEnrollmentStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
		want EnrollmentStatus
	}{
		{name: "empty", raw: Raw{}, want: EnrollmentStatus{}},
		{
			name: "room left",
			raw:  Raw{"maximum_slots": 40.0, "enrolled_count": 12.0},
			want: EnrollmentStatus{MaximumSlots: 40, EnrolledCount: 12, AvailableSlots: 28},
		},
		{
			name: "derived full",
			raw:  Raw{"maximum_slots": "30", "enrolled_count": "30"},
			want: EnrollmentStatus{MaximumSlots: 30, EnrolledCount: 30, IsFull: true},
		},
		{
			name: "over capacity",
			raw:  Raw{"maximum_slots": 10.0, "enrolled_count": 15.0, "is_full": false},
			want: EnrollmentStatus{MaximumSlots: 10, EnrolledCount: 15},
		},
		{
			name: "upstream says full",
			raw:  Raw{"maximum_slots": 10.0, "enrolled_count": 2.0, "is_full": 1.0},
			want: EnrollmentStatus{MaximumSlots: 10, EnrolledCount: 2, IsFull: true},
		},
		{
			name: "negative counters",
			raw:  Raw{"maximum_slots": -5.0, "enrolled_count": -1.0},
			want: EnrollmentStatus{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeEnrollmentStatus(tt.raw); got != tt.want {
				t.Errorf("ComputeEnrollmentStatus() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeEnrollmentStatus_NeverNegative(t *testing.T) {
	for maxSlots := 0; maxSlots <= 50; maxSlots += 5 {
		for enrolled := 0; enrolled <= 60; enrolled += 3 {
			for _, full := range []interface{}{nil, true, false} {
				raw := Raw{"maximum_slots": float64(maxSlots), "enrolled_count": float64(enrolled)}
				if full != nil {
					raw["is_full"] = full
				}
				st := ComputeEnrollmentStatus(raw)
				if st.AvailableSlots < 0 {
					t.Fatalf("availableSlots = %d for max=%d enrolled=%d", st.AvailableSlots, maxSlots, enrolled)
				}
				if st.IsFull && st.AvailableSlots != 0 {
					t.Fatalf("full class reports %d available slots", st.AvailableSlots)
				}
			}
		}
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		raw  Raw
		want string
	}{
		{Raw{}, ClassificationCollege},
		{Raw{"classification": "College"}, ClassificationCollege},
		{Raw{"classification": "SHS"}, ClassificationSHS},
		{Raw{"classification": "Senior High"}, ClassificationSHS},
		{Raw{"shs_track_id": 2.0}, ClassificationSHS},
	}
	for _, tt := range tests {
		if got := Classification(tt.raw); got != tt.want {
			t.Errorf("Classification(%v) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeClass(t *testing.T) {
	raw := mustRaw(t, `{"data": {"id": 42, "faculty_id": "7", "classification": "college",
		"subject": {"code": "CS101"}, "maximum_slots": 2, "enrolled_count": 1,
		"settings": "{\"visual\": {\"theme\": \"blue\"}, \"features\": {\"enable_discussion_board\": true}}"}}`)

	got := NormalizeClass(raw)
	assert.Equal(t, "42", got.ID)
	assert.Equal(t, "7", got.FacultyID)
	assert.Equal(t, "CS101", got.SubjectCode)
	assert.Equal(t, 1, got.AvailableSlots)
	assert.Equal(t, ClassificationCollege, got.Classification)
	assert.Equal(t, "blue", got.Settings.Visual.Theme)
	assert.True(t, got.Settings.Features.EnableDiscussionBoard)
	assert.True(t, got.Settings.Features.EnableAnnouncements, "absent feature keeps its default")
}

func TestDecodeObject(t *testing.T) {
	for _, v := range []interface{}{nil, "str", 1.0, []interface{}{}, []byte(`[1,2]`), []byte(`null`), []byte(`{`)} {
		if _, err := DecodeObject(v); err != ErrNotObject {
			t.Errorf("DecodeObject(%v) error = %v, want ErrNotObject", v, err)
		}
	}
	if _, err := DecodeObject(map[string]interface{}{}); err != nil {
		t.Errorf("DecodeObject(map) error = %v", err)
	}
}

func TestLookup(t *testing.T) {
	raw := mustRaw(t, `{"a": {"b": [{"c": "x"}, {"c": 5}]}, "n": null}`)
	tests := []struct {
		path   string
		want   interface{}
		wantOK bool
	}{
		{"a.b.0.c", "x", true},
		{"a.b.1.c", 5.0, true},
		{"a.b.2.c", nil, false},
		{"a.b.x", nil, false},
		{"n", nil, false},
		{"missing.path", nil, false},
	}
	for _, tt := range tests {
		got, ok := raw.Lookup(tt.path)
		if ok != tt.wantOK || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Lookup(%q) = (%v, %v), want (%v, %v)", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormalizeSettings(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want func(s *ClassSettings)
	}{
		{name: "absent", in: nil, want: func(*ClassSettings) {}},
		{name: "not an object", in: 42.0, want: func(*ClassSettings) {}},
		{name: "stored empty theme stays empty", in: map[string]interface{}{"visual": map[string]interface{}{"theme": ""}},
			want: func(s *ClassSettings) { s.Visual.Theme = "" }},
		{name: "flat camelCase", in: map[string]interface{}{"accentColor": "#abc", "enableAnnouncements": "0"},
			want: func(s *ClassSettings) {
				s.Visual.AccentColor = "#abc"
				s.Features.EnableAnnouncements = false
			}},
		{name: "JSON string", in: `{"features": {"allow_late_submissions": true}}`,
			want: func(s *ClassSettings) { s.Features.AllowLateSubmissions = true }},
		{name: "broken JSON string", in: `{"features":`, want: func(*ClassSettings) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := DefaultSettings()
			tt.want(&want)
			assert.Equal(t, want, NormalizeSettings(tt.in))
		})
	}
}
