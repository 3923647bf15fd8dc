package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	semesterTag  = "semester"
	semesterText = "must be one of: 1, 2, summer"

	schoolYearTag   = "schoolyear"
	schoolYearText  = "must be a year (YYYY) or a year range (YYYY-YYYY)"
	schoolYearRegex = regexp.MustCompile(`^\d{4}(-\d{4})?$`)

	gradeTermTag  = "gradeterm"
	gradeTermText = "must be one of: prelim, midterm, finals"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// Semesters lists the valid semester values, in display order.
var Semesters = []string{"1", "2", "summer"}

// GradeTerms lists the grading terms an enrollment carries a grade for.
var GradeTerms = []string{"prelim", "midterm", "finals"}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "" {
			tag = fld.Tag.Get("query")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(semesterTag, semesterValidation)
	RegisterCustomTranslation(validate, translator, semesterTag, semesterText)

	_ = validate.RegisterValidation(schoolYearTag, schoolYearValidation)
	RegisterCustomTranslation(validate, translator, schoolYearTag, schoolYearText)

	_ = validate.RegisterValidation(gradeTermTag, gradeTermValidation)
	RegisterCustomTranslation(validate, translator, gradeTermTag, gradeTermText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// IsSemester reports whether s is a valid semester value.
func IsSemester(s string) bool {
	for _, sem := range Semesters {
		if s == sem {
			return true
		}
	}
	return false
}

// IsSchoolYear reports whether s looks like "YYYY" or "YYYY-YYYY".
func IsSchoolYear(s string) bool {
	return schoolYearRegex.MatchString(s)
}

// Custom Global Validators

func semesterValidation(fl validator.FieldLevel) bool {
	return IsSemester(fl.Field().String())
}

func schoolYearValidation(fl validator.FieldLevel) bool {
	return IsSchoolYear(fl.Field().String())
}

func gradeTermValidation(fl validator.FieldLevel) bool {
	term := fl.Field().String()
	for _, t := range GradeTerms {
		if term == t {
			return true
		}
	}
	return false
}
