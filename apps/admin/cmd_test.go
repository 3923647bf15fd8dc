package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core/directory"
	"github.com/trezcool/portal/core/records"
	logsvc "github.com/trezcool/portal/services/logger"
	"github.com/trezcool/portal/storage/database/inmem"
)

type fakeSource struct {
	rows []records.Raw
	err  error
}

func (f fakeSource) FacultyList(context.Context) ([]records.Raw, error) {
	return f.rows, f.err
}

func setup(t *testing.T, src directory.Source) (*commandLine, directory.Repository, *bytes.Buffer) {
	t.Helper()
	repo := inmemdb.NewDirectoryRepository(inmemdb.Open())
	var out bytes.Buffer
	return &commandLine{
		dirSvc: directory.NewService(repo, logsvc.Discard()),
		source: src,
		out:    &out,
	}, repo, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _, _ := setup(t, fakeSource{})

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "pullfaculty: bad timeout", args: []string{"pullfaculty", "-timeout", "0s"}, wantErr: errHelp},
		{name: "pullfaculty: help", args: []string{"pullfaculty", "-h"}, wantErr: errHelp},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t, fakeSource{})

	var gotDir string
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		gotDir = dir
		if _, err := fs.ReadFile(fsys, dir+"/00001_create_faculty.sql"); err != nil {
			return err
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "room_bookings", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	})
	assert.Equal(t, "migrations", gotDir)
}

func Test_commandLine_pullFaculty(t *testing.T) {
	src := fakeSource{rows: []records.Raw{
		{"id": "F1", "first_name": "Grace", "last_name": "Hopper"},
		{"id": "F2", "first_name": "Alan", "last_name": "Turing", "is_active": "0"},
		{"first_name": "Nameless"},
	}}
	cli, repo, out := setup(t, src)

	runCLITests(t, cli, []cliTest{
		{name: "pull", args: []string{"pullfaculty"}},
		{name: "pull again is idempotent", args: []string{"pullfaculty", "-timeout", "10s"}},
	})
	assert.Contains(t, out.String(), "faculty pulled: 3 total, 2 upserted, 1 failed")

	all, err := repo.QueryFaculty(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	f2, err := repo.GetFaculty(context.Background(), "F2")
	require.NoError(t, err)
	assert.False(t, f2.IsActive)

	down, _, _ := setup(t, fakeSource{err: &records.UnavailableError{Endpoint: "GET /faculty", Err: errors.New("refused")}})
	err = down.run([]string{"admin", "pullfaculty"})
	var unavailable *records.UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}
