package main

import (
	"fmt"

	"github.com/GithubESPI/bulletins/core/bulletin"
)

func (cli *commandLine) evaluate(states []string, average string) error {
	req := bulletin.EvaluateRequest{States: states}
	if average != "" {
		req.Average = average
	}
	etat := cli.bulletinSvc.Evaluate(req)
	fmt.Fprintf(cli.out, "%s (%s)\n", etat, etat.Label())
	return nil
}
