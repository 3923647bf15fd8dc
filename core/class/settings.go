package class

type (
	VisualPatch struct {
		Theme           *string `json:"theme" validate:"omitempty,max=50"`
		AccentColor     *string `json:"accentColor" validate:"omitempty,max=32"`
		BackgroundColor *string `json:"backgroundColor" validate:"omitempty,max=32"`
		BannerImage     *string `json:"bannerImage" validate:"omitempty,max=2048"`
	}

	FeaturesPatch struct {
		EnableAnnouncements      *bool `json:"enableAnnouncements"`
		EnableGradeVisibility    *bool `json:"enableGradeVisibility"`
		EnableAttendanceTracking *bool `json:"enableAttendanceTracking"`
		AllowLateSubmissions     *bool `json:"allowLateSubmissions"`
		EnableDiscussionBoard    *bool `json:"enableDiscussionBoard"`
	}

	// SettingsPatch is a partial ClassSettings. Leaves may be sent nested (visual/features) or flat;
	// a flat leaf wins over its nested twin.
	SettingsPatch struct {
		Visual   *VisualPatch   `json:"visual"`
		Features *FeaturesPatch `json:"features"`
		VisualPatch
		FeaturesPatch
	}
)

// overlay writes every leaf the patch sets into w. Nested leaves go first so a flat twin wins.
func (p SettingsPatch) overlay(w WireSettings) {
	visual, features := w.group("visual"), w.group("features")
	if p.Visual != nil {
		p.Visual.overlay(visual)
	}
	if p.Features != nil {
		p.Features.overlay(features)
	}
	p.VisualPatch.overlay(visual)
	p.FeaturesPatch.overlay(features)
}

func (p VisualPatch) overlay(g map[string]interface{}) {
	putString(g, "theme", p.Theme)
	putString(g, "accent_color", p.AccentColor)
	putString(g, "background_color", p.BackgroundColor)
	putString(g, "banner_image", p.BannerImage)
}

func (p FeaturesPatch) overlay(g map[string]interface{}) {
	putBool(g, "enable_announcements", p.EnableAnnouncements)
	putBool(g, "enable_grade_visibility", p.EnableGradeVisibility)
	putBool(g, "enable_attendance_tracking", p.EnableAttendanceTracking)
	putBool(g, "allow_late_submissions", p.AllowLateSubmissions)
	putBool(g, "enable_discussion_board", p.EnableDiscussionBoard)
}

func putString(g map[string]interface{}, key string, v *string) {
	if v != nil {
		g[key] = *v
	}
}

func putBool(g map[string]interface{}, key string, v *bool) {
	if v != nil {
		g[key] = *v
	}
}
