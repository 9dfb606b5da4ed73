package main

import (
	"context"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/GithubESPI/bulletins/core/bulletin"
)

func (cli *commandLine) generate(ng bulletin.NewGeneration, out string) error {
	if err := ng.Validate(cli.validate); err != nil {
		return err
	}

	job, archive, err := cli.bulletinSvc.Generate(context.Background(), ng)
	if err != nil {
		return errors.Wrapf(err, "job %s", job.ID)
	}

	if out == "" {
		out = archive.Name
	}
	if err = ioutil.WriteFile(out, archive.Content, 0644); err != nil {
		return errors.Wrap(err, "writing archive")
	}
	fmt.Fprintf(cli.out, "job %s: %d bulletins written to %s\n", job.ID, job.StudentCount, out)
	return nil
}
