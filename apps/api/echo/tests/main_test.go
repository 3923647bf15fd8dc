package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/portal/apps/api/echo"
	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/class"
	"github.com/trezcool/portal/core/directory"
	"github.com/trezcool/portal/core/grade"
	"github.com/trezcool/portal/core/student"
	logsvc "github.com/trezcool/portal/services/logger"
	"github.com/trezcool/portal/services/upstream"
	"github.com/trezcool/portal/storage/database/inmem"
	"github.com/trezcool/portal/tests"
)

const upstreamToken = "up-token"

type env struct {
	srv      *echoapi.Server
	up       *testutil.FakeUpstream
	conf     *core.Config
	client   *upstream.Client
	resolver *academic.Resolver
}

func newConf() *core.Config {
	return &core.Config{
		AppName:  "Academia",
		Env:      "TEST",
		TestMode: true,
		Server:   core.ServerConfig{DisableReqLogs: true},
		Auth:     core.AuthConfig{SecretKey: "test-secret", Issuer: "idp.test"},
		Upstream: core.UpstreamConfig{Token: upstreamToken, Timeout: 5 * time.Second, CacheTTL: 5 * time.Minute},
	}
}

// setup seeds a fake upstream with two F1 classes, one F2 class and one enrolled student, S1.
func setup(t *testing.T, seed ...func(up *testutil.FakeUpstream)) *env {
	t.Helper()

	up := testutil.NewFakeUpstream(t)
	up.Settings = testutil.Object{
		"current_semester":    "1",
		"current_school_year": "2025-2026",
		"school_years":        []string{"2024-2025", "2025-2026"},
	}
	up.Classes["42"] = testutil.Object{
		"id":             "42",
		"subject":        testutil.Object{"id": 7, "code": "CS101", "name": "Intro to Computing"},
		"section":        testutil.Object{"id": 3, "name": "A"},
		"semester":       "1",
		"school_year":    "2025-2026",
		"classification": "college",
		"maximum_slots":  40,
		"enrolled_count": 12,
		"faculty_id":     "F1",
		"schedules": []testutil.Object{{
			"id": 9, "day_of_week": "Monday", "start_time": "08:00", "end_time": "09:30",
			"room": testutil.Object{"id": 5, "name": "R101", "building": "Main"},
		}},
		"settings": testutil.Object{"visual": testutil.Object{"theme": "ocean", "accent_color": "#123456"}},
	}
	up.Classes["43"] = testutil.Object{
		"id":             "43",
		"subject":        testutil.Object{"id": 8, "code": "GEN1", "name": "General Math"},
		"section":        testutil.Object{"id": 4, "name": "STEM-1", "grade_level": "11"},
		"semester":       "1",
		"school_year":    "2025-2026",
		"classification": "shs",
		"shs_track_id":   2,
		"shs_strand_id":  6,
		"maximum_slots":  30,
		"enrolled_count": 30,
		"faculty_id":     "F1",
	}
	up.Classes["44"] = testutil.Object{"id": "44", "faculty_id": "F2", "semester": "1", "school_year": "2025-2026"}
	up.FacultyClasses["F1"] = []string{"42", "99", "43"}
	up.Fail["/classes/99"] = http.StatusInternalServerError
	up.ClassEnrollments["42"] = []testutil.Object{
		{"id": "E1", "student_id": "S1", "class_id": "42", "prelim_grade": 88},
		{"id": "E2", "student_id": "S2", "class_id": "42", "prelim_grade": 91, "is_finalized": true},
	}
	up.Finalized["E2"] = true
	up.StudentEnrollments["S1"] = []testutil.Object{
		{"id": "E1", "class_id": "42", "semester": "1", "school_year": "2025-2026", "course_id": "BSCS", "status": "enrolled"},
	}
	up.Students = []testutil.Object{
		{"id": "u-s1", "student_id": "S1", "email": "s1@uni.edu", "first_name": "Ana", "last_name": "Cruz"},
	}
	up.Faculty = []testutil.Object{
		{"id": "F1", "first_name": "Grace", "last_name": "Hopper", "department": "CS"},
		{"id": "F2", "first_name": "Alan", "last_name": "Turing", "department": "Math"},
	}
	for _, fn := range seed {
		fn(up)
	}
	return newEnv(t, up, up.URL())
}

func newEnv(t *testing.T, up *testutil.FakeUpstream, baseURL string) *env {
	t.Helper()

	conf := newConf()
	conf.Upstream.BaseURL = baseURL
	logger := logsvc.Discard()

	client := upstream.New(upstream.Options{
		BaseURL:  conf.Upstream.BaseURL,
		Token:    conf.Upstream.Token,
		Timeout:  conf.Upstream.Timeout,
		CacheTTL: conf.Upstream.CacheTTL,
		Logger:   logger,
	})

	db := inmemdb.Open()
	dirRepo := inmemdb.NewDirectoryRepository(db)
	dirRepo.AddScheduleSlot(directory.ScheduleSlot{
		FacultyID: "F1", SubjectCode: "CS101", Section: "A", DayOfWeek: "Monday",
		StartTime: "08:00", EndTime: "09:30", Semester: "1", SchoolYear: "2025-2026",
	})
	dirSvc := directory.NewService(dirRepo, logger)
	if up != nil {
		if _, err := dirSvc.Pull(context.Background(), client); err != nil {
			t.Fatalf("dirSvc.Pull(): %v", err)
		}
	}

	resolver := academic.NewResolver(inmemdb.NewProfileStore(db), client, logger)
	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:         conf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		Upstream:     client,
		Resolver:     resolver,
		ClassSvc:     class.NewService(client, logger),
		GradeSvc:     grade.NewService(client, logger),
		StudentSvc:   student.NewService(client, logger),
		DirectorySvc: dirSvc,
	})
	return &env{srv: srv, up: up, conf: conf, client: client, resolver: resolver}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type identity struct {
	role      string
	studentID string
	facultyID string
}

var (
	studentS1 = identity{role: echoapi.RoleStudent, studentID: "S1"}
	studentS2 = identity{role: echoapi.RoleStudent, studentID: "S2"}
	facultyF1 = identity{role: echoapi.RoleFaculty, facultyID: "F1"}
	facultyF2 = identity{role: echoapi.RoleFaculty, facultyID: "F2"}
	admin     = identity{role: echoapi.RoleAdmin}
)

func (e *env) token(t *testing.T, id identity) string {
	t.Helper()
	claims := echoapi.NewClaims(e.conf.Auth, "u-"+id.role+id.studentID+id.facultyID, id.role, time.Hour)
	claims.StudentID = id.studentID
	claims.FacultyID = id.facultyID
	token, err := echoapi.GenerateToken(e.conf.Auth, claims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}
	return token
}

type httpErr struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode(%q): %v", rec.Body.String(), err)
	}
	return m
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, e *env, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := e.do(newAuthRequest(method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}
