package class

import "github.com/trezcool/portal/core/records"

// UpdatePayload is the full class record the upstream PUT requires.
// Values are copied verbatim from the fetched record; only Settings is rebuilt.
type UpdatePayload struct {
	SubjectID      interface{}  `json:"subject_id"`
	SectionID      interface{}  `json:"section_id"`
	FacultyID      interface{}  `json:"faculty_id"`
	Semester       interface{}  `json:"semester"`
	SchoolYear     interface{}  `json:"school_year"`
	Classification interface{}  `json:"classification"`
	MaximumSlots   interface{}  `json:"maximum_slots"`
	ScheduleID     interface{}  `json:"schedule_id"`
	RoomID         interface{}  `json:"room_id"`
	DayOfWeek      interface{}  `json:"day_of_week"`
	StartTime      interface{}  `json:"start_time"`
	EndTime        interface{}  `json:"end_time"`
	GradeLevel     interface{}  `json:"grade_level"`
	SHSTrackID     interface{}  `json:"shs_track_id"`
	SHSStrandID    interface{}  `json:"shs_strand_id"`
	Settings       WireSettings `json:"settings"`
}

// WireSettings is the settings block as the upstream stores it: visual and features groups with snake_case
// leaves. Keys the gateway does not model are carried through untouched.
type WireSettings map[string]interface{}

type settingsLeaf struct {
	group, key, camel string
}

var settingsLeaves = []settingsLeaf{
	{"visual", "theme", "theme"},
	{"visual", "accent_color", "accentColor"},
	{"visual", "background_color", "backgroundColor"},
	{"visual", "banner_image", "bannerImage"},
	{"features", "enable_announcements", "enableAnnouncements"},
	{"features", "enable_grade_visibility", "enableGradeVisibility"},
	{"features", "enable_attendance_tracking", "enableAttendanceTracking"},
	{"features", "allow_late_submissions", "allowLateSubmissions"},
	{"features", "enable_discussion_board", "enableDiscussionBoard"},
}

// MergeSettings overlays the leaves patch sets on the stored settings block. A leaf the patch omits keeps its
// stored value (an absent one stays absent). Known leaves stored flat or in camelCase move to their nested
// snake_case place.
func MergeSettings(stored interface{}, patch SettingsPatch) WireSettings {
	src := records.SettingsObject(stored)
	w := make(WireSettings, len(src)+2)
	for k, v := range src {
		w[k] = v
	}
	for _, name := range []string{"visual", "features"} {
		g := make(map[string]interface{})
		switch obj := src[name].(type) {
		case map[string]interface{}:
			for k, v := range obj {
				g[k] = v
			}
		case records.Raw:
			for k, v := range obj {
				g[k] = v
			}
		}
		w[name] = g
	}

	for _, leaf := range settingsLeaves {
		w.canonicalize(leaf)
	}
	patch.overlay(w)
	return w
}

// canonicalize moves the first stored alias of leaf (same lookup order as records.NormalizeSettings)
// to group.key and drops the others.
func (w WireSettings) canonicalize(leaf settingsLeaf) {
	g := w.group(leaf.group)
	type slot struct {
		m map[string]interface{}
		k string
	}
	slots := []slot{{g, leaf.camel}, {g, leaf.key}, {w, leaf.camel}, {w, leaf.key}}

	var val interface{}
	found := false
	for _, s := range slots {
		v, ok := s.m[s.k]
		if !ok {
			continue
		}
		if !found {
			val, found = v, true
		}
		delete(s.m, s.k)
	}
	if found {
		g[leaf.key] = val
	}
}

func (w WireSettings) group(name string) map[string]interface{} {
	if g, ok := w[name].(map[string]interface{}); ok {
		return g
	}
	g := make(map[string]interface{})
	w[name] = g
	return g
}

// BuildPayload copies every required field of the fetched class and sets the merged settings.
// Schedule and room ids come from the first schedule row: the upstream keeps one room per class.
// Non-SHS classes send the SHS-only fields as null, never "".
func BuildPayload(raw records.Raw, settings WireSettings) UpdatePayload {
	p := UpdatePayload{
		SubjectID:      raw.Value("subject_id", "subject.id"),
		SectionID:      raw.Value("section_id", "section.id"),
		FacultyID:      raw.Value("faculty_id", "faculty.id"),
		Semester:       raw.Value("semester"),
		SchoolYear:     raw.Value("school_year", "academic_year"),
		Classification: raw.Value("classification"),
		MaximumSlots:   raw.Value("maximum_slots", "max_slots"),
		ScheduleID:     raw.Value("schedules.0.id", "schedule.id", "schedule_id"),
		RoomID:         raw.Value("schedules.0.room_id", "schedules.0.room.id", "schedule.room_id", "room_id"),
		DayOfWeek:      raw.Value("schedules.0.day_of_week", "schedule.day_of_week", "day_of_week"),
		StartTime:      raw.Value("schedules.0.start_time", "schedule.start_time", "start_time"),
		EndTime:        raw.Value("schedules.0.end_time", "schedule.end_time", "end_time"),
		Settings:       settings,
	}
	if records.Classification(raw) == records.ClassificationSHS {
		p.GradeLevel = raw.Value("grade_level", "section.grade_level")
		p.SHSTrackID = raw.Value("shs_track_id", "shs_track.id")
		p.SHSStrandID = raw.Value("shs_strand_id", "shs_strand.id")
	}
	return p
}
