package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

type (
	Object = map[string]interface{}

	// FakeUpstream is an in-process academic-records backend. Fields may be seeded before the first request.
	FakeUpstream struct {
		mu sync.Mutex

		Classes            map[string]Object
		ClassEnrollments   map[string][]Object
		FacultyClasses     map[string][]string
		StudentEnrollments map[string][]Object
		StudentSchedules   map[string][]Object
		Students           []Object
		Faculty            []Object
		Settings           Object
		Finalized          map[string]bool // enrollment ids whose grades are locked
		Fail               map[string]int  // request path -> forced status
		RejectClassUpdate  bool            // PUT /classes/:id answers 422

		hits      map[string]int
		puts      []Object
		grades    []Object
		requestID string
		authz     string

		server *httptest.Server
	}
)

func NewFakeUpstream(t *testing.T) *FakeUpstream {
	t.Helper()

	f := &FakeUpstream{
		Classes:            make(map[string]Object),
		ClassEnrollments:   make(map[string][]Object),
		FacultyClasses:     make(map[string][]string),
		StudentEnrollments: make(map[string][]Object),
		StudentSchedules:   make(map[string][]Object),
		Settings:           Object{},
		Finalized:          make(map[string]bool),
		Fail:               make(map[string]int),
		hits:               make(map[string]int),
	}

	e := echo.New()
	e.Use(f.record)
	e.GET("/classes/:id", f.getClass)
	e.PUT("/classes/:id", f.putClass)
	e.GET("/classes/:id/enrollments", f.classEnrollments)
	e.POST("/classes/:id/grades/finalize", f.finalize)
	e.POST("/enrollments/:id/grades", f.submitGrade)
	e.GET("/faculty", f.faculty)
	e.GET("/faculty/:id/classes", f.facultyClasses)
	e.GET("/students", f.students)
	e.GET("/students/:id/enrollments", f.studentEnrollments)
	e.GET("/students/:id/schedule", f.studentSchedule)
	e.GET("/settings/current", f.settings)
	e.POST("/chat", f.chat)
	e.POST("/attachments", f.attachment)

	f.server = httptest.NewServer(e)
	t.Cleanup(f.server.Close)
	return f
}

func (f *FakeUpstream) URL() string {
	return f.server.URL
}

// Hits counts the requests received for "METHOD /path".
func (f *FakeUpstream) Hits(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[endpoint]
}

// Puts returns the class update payloads received, oldest first.
func (f *FakeUpstream) Puts() []Object {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Object(nil), f.puts...)
}

// Grades returns the grade submissions accepted, oldest first.
func (f *FakeUpstream) Grades() []Object {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Object(nil), f.grades...)
}

// LastRequest returns the X-Request-ID and Authorization headers of the latest request.
func (f *FakeUpstream) LastRequest() (requestID, authorization string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requestID, f.authz
}

func (f *FakeUpstream) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		f.mu.Lock()
		f.hits[req.Method+" "+req.URL.Path]++
		f.requestID = req.Header.Get(echo.HeaderXRequestID)
		f.authz = req.Header.Get(echo.HeaderAuthorization)
		status := f.Fail[req.URL.Path]
		f.mu.Unlock()

		if status != 0 {
			return ctx.JSON(status, Object{"message": http.StatusText(status)})
		}
		return next(ctx)
	}
}

func (f *FakeUpstream) getClass(ctx echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cls, ok := f.Classes[ctx.Param("id")]
	if !ok {
		return ctx.JSON(http.StatusNotFound, Object{"message": "Class not found"})
	}
	return ctx.JSON(http.StatusOK, Object{"data": cls})
}

func (f *FakeUpstream) putClass(ctx echo.Context) error {
	body := Object{}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, Object{"message": err.Error()})
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	cls, ok := f.Classes[ctx.Param("id")]
	if !ok {
		return ctx.JSON(http.StatusNotFound, Object{"message": "Class not found"})
	}
	if f.RejectClassUpdate {
		return ctx.JSON(http.StatusUnprocessableEntity, Object{
			"message": "The given data was invalid.",
			"errors":  Object{"maximum_slots": []string{"The maximum slots must be at least 1."}},
		})
	}
	f.puts = append(f.puts, body)
	cls["settings"] = body["settings"]
	return ctx.JSON(http.StatusOK, Object{"data": cls})
}

func (f *FakeUpstream) classEnrollments(ctx echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rows := f.ClassEnrollments[ctx.Param("id")]
	if rows == nil {
		rows = []Object{}
	}
	return ctx.JSON(http.StatusOK, Object{"data": rows})
}

func (f *FakeUpstream) finalize(ctx echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.ClassEnrollments[ctx.Param("id")] {
		row["is_finalized"] = true
		if id, ok := row["id"].(string); ok {
			f.Finalized[id] = true
		}
	}
	return ctx.JSON(http.StatusOK, Object{"message": "Grades finalized"})
}

func (f *FakeUpstream) submitGrade(ctx echo.Context) error {
	body := Object{}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, Object{"message": err.Error()})
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	id := ctx.Param("id")
	if f.Finalized[id] {
		return ctx.JSON(http.StatusForbidden, Object{"message": "Grades are finalized"})
	}
	classID, _ := body["class_id"].(string)
	for _, row := range f.ClassEnrollments[classID] {
		if row["id"] == id {
			term, _ := body["term"].(string)
			row[term+"_grade"] = body["grade"]
			f.grades = append(f.grades, body)
			return ctx.JSON(http.StatusOK, Object{"data": row})
		}
	}
	return ctx.JSON(http.StatusNotFound, Object{"message": "Enrollment not found"})
}

func (f *FakeUpstream) faculty(ctx echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ctx.JSON(http.StatusOK, Object{"data": f.Faculty})
}

func (f *FakeUpstream) facultyClasses(ctx echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := f.FacultyClasses[ctx.Param("id")]
	rows := make([]Object, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, Object{"id": id})
	}
	return ctx.JSON(http.StatusOK, Object{"data": rows})
}

func (f *FakeUpstream) students(ctx echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rows := make([]Object, 0)
	for _, st := range f.Students {
		if st["email"] == ctx.QueryParam("email") && st["student_id"] == ctx.QueryParam("student_id") {
			rows = append(rows, st)
		}
	}
	return ctx.JSON(http.StatusOK, Object{"data": rows})
}

func (f *FakeUpstream) studentEnrollments(ctx echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rows := make([]Object, 0)
	for _, row := range f.StudentEnrollments[ctx.Param("id")] {
		if row["semester"] == ctx.QueryParam("semester") && row["school_year"] == ctx.QueryParam("school_year") {
			rows = append(rows, row)
		}
	}
	return ctx.JSON(http.StatusOK, Object{"data": rows})
}

func (f *FakeUpstream) studentSchedule(ctx echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rows := f.StudentSchedules[ctx.Param("id")]
	if rows == nil {
		rows = []Object{}
	}
	return ctx.JSON(http.StatusOK, Object{"data": rows})
}

func (f *FakeUpstream) settings(ctx echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ctx.JSON(http.StatusOK, Object{"data": f.Settings})
}

func (f *FakeUpstream) chat(ctx echo.Context) error {
	body := Object{}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, Object{"message": err.Error()})
	}
	return ctx.JSON(http.StatusOK, Object{"reply": "echo: " + body["message"].(string)})
}

func (f *FakeUpstream) attachment(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, Object{"message": "file is required"})
	}
	return ctx.JSON(http.StatusCreated, Object{"url": "https://cdn.test/" + ctx.FormValue("class_id") + "/" + fh.Filename})
}
