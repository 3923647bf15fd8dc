// Package upstream is the only caller of the academic-records backend.
// Every failure it returns is one of the records error types.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/records"
)

const maxBodyBytes = 10 << 20

type (
	Options struct {
		BaseURL    string
		Token      string
		Timeout    time.Duration
		CacheTTL   time.Duration
		HTTPClient *http.Client // optional
		Logger     core.Logger
	}

	Client struct {
		baseURL string
		token   string
		http    *http.Client
		cache   *Cache
		logger  core.Logger
	}

	// Call describes one outbound request.
	Call struct {
		Method string
		Path   string
		Query  url.Values
		Body   interface{} // JSON encoded
		Form   *Multipart  // takes precedence over Body

		// Resource and ID turn a 404 into a records.NotFoundError; left empty, a 404 is a plain UpstreamError.
		Resource string
		ID       string
	}

	// Multipart is a single-file multipart/form-data upload.
	Multipart struct {
		FieldName string
		FileName  string
		Content   io.Reader
		Fields    map[string]string
	}
)

type ctxKey int

const requestIDKey ctxKey = 1

// WithRequestID stores the inbound request id so that outbound calls carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    hc,
		cache:   NewCache(ttl),
		logger:  opts.Logger,
	}
}

// Cache exposes the response cache (debug route, tests).
func (c *Client) Cache() *Cache {
	return c.cache
}

// Request performs call and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) Request(ctx context.Context, call Call, out interface{}) error {
	endpoint := call.Method + " " + call.Path
	req, err := c.newRequest(ctx, call)
	if err != nil {
		return errors.Wrap(err, "upstream.newRequest("+endpoint+")")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream call failed", err, map[string]interface{}{"endpoint": endpoint})
		return &records.UnavailableError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &records.UnavailableError{Endpoint: endpoint, Err: err}
	}
	c.logger.Debug("upstream call", map[string]interface{}{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp.StatusCode, body, endpoint, call)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &records.UpstreamError{Status: resp.StatusCode, Message: "malformed response body", Endpoint: endpoint}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	u := c.baseURL + "/" + strings.TrimLeft(call.Path, "/")
	if len(call.Query) > 0 {
		u += "?" + call.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case call.Form != nil:
		buf := new(bytes.Buffer)
		mw := multipart.NewWriter(buf)
		for k, v := range call.Form.Fields {
			if err := mw.WriteField(k, v); err != nil {
				return nil, err
			}
		}
		fw, err := mw.CreateFormFile(call.Form.FieldName, call.Form.FileName)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(fw, call.Form.Content); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
		body = buf
		contentType = mw.FormDataContentType() // boundary chosen by the writer
	case call.Body != nil:
		b, err := json.Marshal(call.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if id := requestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	return req, nil
}

// responseError maps a non-2xx answer to its typed error.
func responseError(status int, body []byte, endpoint string, call Call) error {
	var parsed map[string]interface{}
	_ = json.Unmarshal(body, &parsed)
	raw := records.Raw(parsed)

	msg := raw.String("message", "error.message", "error", "detail")
	switch {
	case status == http.StatusUnprocessableEntity:
		return &records.ValidationError{Message: msg, Fields: fieldErrors(raw.Value("errors"))}
	case status == http.StatusNotFound && call.Resource != "":
		return &records.NotFoundError{Kind: call.Resource, ID: call.ID}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &records.UpstreamError{Status: status, Message: msg, Endpoint: endpoint}
}

// fieldErrors reads {"field": ["msg", ...]} or {"field": "msg"}.
func fieldErrors(v interface{}) map[string][]string {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return map[string][]string{}
	}
	out := make(map[string][]string, len(obj))
	for field, msgs := range obj {
		switch t := msgs.(type) {
		case string:
			out[field] = []string{t}
		case []interface{}:
			for _, m := range t {
				if s, ok := m.(string); ok {
					out[field] = append(out[field], s)
				}
			}
		}
	}
	return out
}
