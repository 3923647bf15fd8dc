package records

import "github.com/trezcool/portal/core"

// AcademicSettings is the institution-wide period configuration.
// Current values are "" when the upstream does not name one.
type AcademicSettings struct {
	CurrentSemester   string   `json:"currentSemester"`
	CurrentSchoolYear string   `json:"currentSchoolYear"`
	Semesters         []string `json:"semesters"`
	SchoolYears       []string `json:"schoolYears"`
}

// NormalizeAcademicSettings reads the upstream "current settings" object.
func NormalizeAcademicSettings(raw Raw) AcademicSettings {
	raw = Unwrap(raw)
	as := AcademicSettings{
		CurrentSemester:   NormalizeSemester(raw.String("current_semester", "active_semester", "semester")),
		CurrentSchoolYear: raw.String("current_school_year", "school_year", "current_academic_year", "formatted_academic_year"),
		Semesters:         valueList(raw.Value("semesters", "available_semesters"), "value", "semester"),
		SchoolYears:       valueList(raw.Value("school_years", "available_school_years", "academic_years"), "value", "school_year", "name"),
	}
	for i, s := range as.Semesters {
		as.Semesters[i] = NormalizeSemester(s)
	}
	if len(as.Semesters) == 0 {
		as.Semesters = append([]string(nil), core.Semesters...)
	}
	if len(as.SchoolYears) == 0 && as.CurrentSchoolYear != "" {
		as.SchoolYears = []string{as.CurrentSchoolYear}
	}
	return as
}

// valueList reads an array whose items are either scalars or objects carrying the value under one of keys.
func valueList(v interface{}, keys ...string) []string {
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		if obj, ok := asObject(item); ok {
			if s := obj.String(keys...); s != "" {
				out = append(out, s)
			}
			continue
		}
		if s, ok := asString(item); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
