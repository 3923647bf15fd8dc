package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/trezcool/portal/core/directory"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sql.DB
	dirSvc *directory.Service
	source directory.Source
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose command (up, up-to, down, status, ...) on the local database")
	fmt.Fprintln(cli.out, "  pullfaculty [-timeout DURATION] - copy the upstream faculty listing into the local directory")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	pullFacultyCmd := flag.NewFlagSet("pullfaculty", flag.ContinueOnError)
	pullFacultyCmd.SetOutput(cli.out)
	pullFacultyTimeout := pullFacultyCmd.Duration("timeout", 2*time.Minute, "How long the whole pull may take.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "pullfaculty":
		if err := pullFacultyCmd.Parse(args[2:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return errHelp
			}
			return err
		}
		if *pullFacultyTimeout <= 0 {
			pullFacultyCmd.Usage()
			return errHelp
		}
		ctx, cancel := context.WithTimeout(context.Background(), *pullFacultyTimeout)
		defer cancel()
		return cli.pullFaculty(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}
