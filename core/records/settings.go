package records

import "encoding/json"

type (
	VisualSettings struct {
		Theme           string `json:"theme"`
		AccentColor     string `json:"accentColor"`
		BackgroundColor string `json:"backgroundColor"`
		BannerImage     string `json:"bannerImage"`
	}

	FeatureSettings struct {
		EnableAnnouncements      bool `json:"enableAnnouncements"`
		EnableGradeVisibility    bool `json:"enableGradeVisibility"`
		EnableAttendanceTracking bool `json:"enableAttendanceTracking"`
		AllowLateSubmissions     bool `json:"allowLateSubmissions"`
		EnableDiscussionBoard    bool `json:"enableDiscussionBoard"`
	}

	ClassSettings struct {
		Visual   VisualSettings  `json:"visual"`
		Features FeatureSettings `json:"features"`
	}
)

// DefaultSettings are the settings of a class that never saved any.
func DefaultSettings() ClassSettings {
	return ClassSettings{
		Visual: VisualSettings{Theme: "default"},
		Features: FeatureSettings{
			EnableAnnouncements:      true,
			EnableGradeVisibility:    true,
			EnableAttendanceTracking: true,
		},
	}
}

// SettingsObject decodes a class's settings block, stored upstream either as an object or as a JSON string.
// Anything else reads as an empty block.
func SettingsObject(v interface{}) Raw {
	if str, ok := v.(string); ok {
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(str), &decoded); err != nil {
			return Raw{}
		}
		v = decoded
	}
	raw, ok := asObject(v)
	if !ok {
		return Raw{}
	}
	return raw
}

// NormalizeSettings reads a class's settings block, nested (visual/features) or flat, in snake_case or camelCase.
// Absent leaves keep their default; a stored empty string stays empty.
func NormalizeSettings(v interface{}) ClassSettings {
	s := DefaultSettings()
	raw := SettingsObject(v)

	stringInto(raw, &s.Visual.Theme, "visual.theme", "theme")
	stringInto(raw, &s.Visual.AccentColor,
		"visual.accentColor", "visual.accent_color", "accentColor", "accent_color")
	stringInto(raw, &s.Visual.BackgroundColor,
		"visual.backgroundColor", "visual.background_color", "backgroundColor", "background_color")
	stringInto(raw, &s.Visual.BannerImage,
		"visual.bannerImage", "visual.banner_image", "bannerImage", "banner_image")

	boolInto(raw, &s.Features.EnableAnnouncements,
		"features.enableAnnouncements", "features.enable_announcements", "enableAnnouncements", "enable_announcements")
	boolInto(raw, &s.Features.EnableGradeVisibility,
		"features.enableGradeVisibility", "features.enable_grade_visibility", "enableGradeVisibility", "enable_grade_visibility")
	boolInto(raw, &s.Features.EnableAttendanceTracking,
		"features.enableAttendanceTracking", "features.enable_attendance_tracking", "enableAttendanceTracking", "enable_attendance_tracking")
	boolInto(raw, &s.Features.AllowLateSubmissions,
		"features.allowLateSubmissions", "features.allow_late_submissions", "allowLateSubmissions", "allow_late_submissions")
	boolInto(raw, &s.Features.EnableDiscussionBoard,
		"features.enableDiscussionBoard", "features.enable_discussion_board", "enableDiscussionBoard", "enable_discussion_board")
	return s
}

func stringInto(raw Raw, dst *string, paths ...string) {
	for _, p := range paths {
		v, ok := raw.Lookup(p)
		if !ok {
			continue
		}
		if str, ok := asString(v); ok {
			*dst = str
			return
		}
	}
}

func boolInto(raw Raw, dst *bool, paths ...string) {
	if b, ok := raw.Bool(paths...); ok {
		*dst = b
	}
}
