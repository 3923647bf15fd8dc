package upstream

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/trezcool/portal/core/records"
)

const currentSettingsKey = "settings:current"

func classKey(id string) string {
	return "class:" + id
}

func periodQuery(semester, schoolYear string) url.Values {
	q := url.Values{}
	if semester != "" {
		q.Set("semester", semester)
	}
	if schoolYear != "" {
		q.Set("school_year", schoolYear)
	}
	return q
}

func (c *Client) object(ctx context.Context, call Call) (records.Raw, error) {
	var v interface{}
	if err := c.Request(ctx, call, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return records.Raw{}, nil
	}
	raw, err := records.DecodeObject(v)
	if err != nil {
		return nil, &records.UpstreamError{Status: http.StatusOK, Message: "unexpected response shape", Endpoint: call.Method + " " + call.Path}
	}
	return records.Unwrap(raw), nil
}

func (c *Client) list(ctx context.Context, call Call) ([]records.Raw, error) {
	var v interface{}
	if err := c.Request(ctx, call, &v); err != nil {
		return nil, err
	}
	return records.List(v), nil
}

// Class returns the class, from the cache when fresh.
func (c *Client) Class(ctx context.Context, id string) (records.Raw, error) {
	if v, ok := c.cache.Get(classKey(id)); ok {
		return v.(records.Raw), nil
	}
	raw, err := c.FetchClass(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Set(classKey(id), raw)
	return raw, nil
}

// FetchClass always hits the upstream.
func (c *Client) FetchClass(ctx context.Context, id string) (records.Raw, error) {
	return c.object(ctx, Call{Method: http.MethodGet, Path: "/classes/" + url.PathEscape(id), Resource: "class", ID: id})
}

// UpdateClass submits a full class record.
func (c *Client) UpdateClass(ctx context.Context, id string, payload interface{}) (records.Raw, error) {
	return c.object(ctx, Call{Method: http.MethodPut, Path: "/classes/" + url.PathEscape(id), Body: payload, Resource: "class", ID: id})
}

func (c *Client) InvalidateClass(id string) {
	c.cache.Delete(classKey(id))
}

// FacultyClassIDs lists the ids of the classes a faculty member teaches in a period.
func (c *Client) FacultyClassIDs(ctx context.Context, facultyID, semester, schoolYear string) ([]string, error) {
	var v interface{}
	call := Call{
		Method:   http.MethodGet,
		Path:     "/faculty/" + url.PathEscape(facultyID) + "/classes",
		Query:    periodQuery(semester, schoolYear),
		Resource: "faculty",
		ID:       facultyID,
	}
	if err := c.Request(ctx, call, &v); err != nil {
		return nil, err
	}

	if obj, ok := v.(map[string]interface{}); ok {
		v = obj["data"]
	}
	items, _ := v.([]interface{})
	ids := make([]string, 0, len(items))
	for _, item := range items {
		var id string
		switch t := item.(type) {
		case map[string]interface{}:
			id = records.Raw(t).String("id", "class_id")
		default:
			id = records.Raw{"id": t}.String("id")
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *Client) ClassEnrollments(ctx context.Context, classID string) ([]records.Raw, error) {
	return c.list(ctx, Call{Method: http.MethodGet, Path: "/classes/" + url.PathEscape(classID) + "/enrollments", Resource: "class", ID: classID})
}

// SubmitGrade records one term grade. The upstream refuses it once the enrollment is finalized.
func (c *Client) SubmitGrade(ctx context.Context, enrollmentID string, body interface{}) (records.Raw, error) {
	return c.object(ctx, Call{
		Method:   http.MethodPost,
		Path:     "/enrollments/" + url.PathEscape(enrollmentID) + "/grades",
		Body:     body,
		Resource: "enrollment",
		ID:       enrollmentID,
	})
}

func (c *Client) FinalizeGrades(ctx context.Context, classID string) (records.Raw, error) {
	return c.object(ctx, Call{Method: http.MethodPost, Path: "/classes/" + url.PathEscape(classID) + "/grades/finalize", Resource: "class", ID: classID})
}

// FindStudent looks a student up by email and student number.
func (c *Client) FindStudent(ctx context.Context, email, studentID string) (records.Raw, error) {
	q := url.Values{}
	q.Set("email", email)
	q.Set("student_id", studentID)
	rows, err := c.list(ctx, Call{Method: http.MethodGet, Path: "/students", Query: q, Resource: "student", ID: studentID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &records.NotFoundError{Kind: "student", ID: studentID}
	}
	return rows[0], nil
}

func (c *Client) StudentEnrollments(ctx context.Context, studentID, semester, schoolYear string) ([]records.Raw, error) {
	return c.list(ctx, Call{
		Method:   http.MethodGet,
		Path:     "/students/" + url.PathEscape(studentID) + "/enrollments",
		Query:    periodQuery(semester, schoolYear),
		Resource: "student",
		ID:       studentID,
	})
}

func (c *Client) StudentSchedule(ctx context.Context, studentID, semester, schoolYear string) ([]records.Raw, error) {
	return c.list(ctx, Call{
		Method:   http.MethodGet,
		Path:     "/students/" + url.PathEscape(studentID) + "/schedule",
		Query:    periodQuery(semester, schoolYear),
		Resource: "student",
		ID:       studentID,
	})
}

// CurrentSettings returns the institution-wide academic settings, cached like any other resource.
func (c *Client) CurrentSettings(ctx context.Context) (records.Raw, error) {
	if v, ok := c.cache.Get(currentSettingsKey); ok {
		return v.(records.Raw), nil
	}
	raw, err := c.object(ctx, Call{Method: http.MethodGet, Path: "/settings/current"})
	if err != nil {
		return nil, err
	}
	c.cache.Set(currentSettingsKey, raw)
	return raw, nil
}

// Chat forwards an assistant conversation turn.
func (c *Client) Chat(ctx context.Context, body interface{}) (records.Raw, error) {
	return c.object(ctx, Call{Method: http.MethodPost, Path: "/chat", Body: body})
}

// UploadAttachment stores a file upstream; the response carries its public url.
func (c *Client) UploadAttachment(ctx context.Context, fileName string, content io.Reader, fields map[string]string) (records.Raw, error) {
	form := &Multipart{FieldName: "file", FileName: fileName, Content: content, Fields: fields}
	return c.object(ctx, Call{Method: http.MethodPost, Path: "/attachments", Form: form})
}

func (c *Client) FacultyList(ctx context.Context) ([]records.Raw, error) {
	return c.list(ctx, Call{Method: http.MethodGet, Path: "/faculty"})
}

// Ping checks that the upstream answers, bypassing the cache.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := c.Request(ctx, Call{Method: http.MethodGet, Path: "/settings/current"}, nil)
	return time.Since(start), err
}
