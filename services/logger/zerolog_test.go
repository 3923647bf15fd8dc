package logsvc

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/trezcool/portal/core"
)

func TestZeroLogger_Fields(t *testing.T) {
	buf := new(bytes.Buffer)
	l := NewZeroLogger(zerolog.New(buf))

	l.Warn("upstream call failed",
		errors.New("boom"),
		map[string]interface{}{"endpoint": "GET /classes/1"},
		core.Identity{ID: "u1", Role: "faculty"},
		42,
	)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	want := map[string]interface{}{
		"level":     "warn",
		"message":   "upstream call failed",
		"error":     "boom",
		"endpoint":  "GET /classes/1",
		"user_id":   "u1",
		"user_role": "faculty",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("line[%q] = %v, want %v", k, line[k], v)
		}
	}
	if extra, _ := line["extra"].([]interface{}); len(extra) != 1 || extra[0] != "42" {
		t.Errorf("line[extra] = %v, want [42]", line["extra"])
	}
}

func TestZeroLogger_Level(t *testing.T) {
	buf := new(bytes.Buffer)
	l := NewZeroLogger(zerolog.New(buf).Level(zerolog.InfoLevel))

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line written below level: %s", buf.String())
	}
	l.Info("shown")
	if buf.Len() == 0 {
		t.Error("info line not written")
	}
}

func TestNewOutput_LogDirError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, closer, err := NewOutput(core.LogConfig{Level: "info", File: filepath.Join(blocker, "logs", "api.log")}, "Academia")
	if err == nil {
		t.Fatal("NewOutput() error = nil, want a MkdirAll error")
	}
	if !strings.HasPrefix(err.Error(), "logsvc.MkdirAll(") {
		t.Errorf("NewOutput() error = %q, want it wrapped with logsvc.MkdirAll", err)
	}
	var pathErr *os.PathError
	if !errors.As(err, &pathErr) {
		t.Errorf("NewOutput() error = %T, want it to wrap *os.PathError", err)
	}
	if closer == nil {
		t.Error("NewOutput() closer = nil")
	}
}
