package core

type (
	// Logger reports application events.
	// expected args: error, map[string]interface{} (fields), Identity (the authenticated caller)
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// Identity is the authenticated caller attached to log reports.
	Identity struct {
		ID    string
		Name  string
		Email string
		Role  string
	}
)
