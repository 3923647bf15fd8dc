package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

func (cli *commandLine) pullFaculty(ctx context.Context) error {
	res, err := cli.dirSvc.Pull(ctx, cli.source)
	if err != nil {
		return errors.Wrap(err, "pulling faculty")
	}
	fmt.Fprintf(cli.out, "faculty pulled: %d total, %d upserted, %d failed\n", res.Total, res.Upserted, res.Failed)
	return nil
}
