package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/GithubESPI/bulletins/core/bulletin"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type tokenSetter interface {
	SetToken(token string)
}

type commandLine struct {
	out         io.Writer
	openDB      func() (*sql.DB, error)
	bulletinSvc *bulletin.Service
	validate    *validator.Validate
	source      tokenSetter
	hasToken    bool
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) against the jobs database")
	fmt.Fprintln(cli.out, "  generate -period PERIOD [-label LABEL] [-students ID,ID] [-out FILE] - generate the bulletins of a period")
	fmt.Fprintln(cli.out, "  evaluate -states VA,C,... [-average AVG] - compute the verdict of a teaching unit")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	generateCmd := flag.NewFlagSet("generate", flag.ContinueOnError)
	generateCmd.SetOutput(cli.out)
	generatePeriod := generateCmd.String("period", "", "The period code, e.g. S1-2024.")
	generateLabel := generateCmd.String("label", "", "The period label printed on bulletins. Defaults to the code.")
	generateStudents := generateCmd.String("students", "", "Comma-separated student codes. Defaults to every student of the period.")
	generateOut := generateCmd.String("out", "", "The ZIP file to write. Defaults to bulletins_<period>.zip.")

	evaluateCmd := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	evaluateCmd.SetOutput(cli.out)
	evaluateStates := evaluateCmd.String("states", "", "Comma-separated subject states (VA, NV, C, R).")
	evaluateAverage := evaluateCmd.String("average", "", "The unit average; a decimal comma is accepted.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Fprintln(cli.out, "Usage: migrate up|up-by-one|up-to VERSION|down|down-to VERSION|redo|reset|status|version|create NAME [sql]|fix")
			return errHelp
		}
		return cli.migrate(args[2:])
	case "generate":
		if err := generateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*generatePeriod) == "" {
			generateCmd.Usage()
			return errHelp
		}
		if !cli.hasToken {
			fmt.Fprint(cli.out, "Enter Yparéo token:")
			token, err := readPasswordFunc(int(syscall.Stdin))
			fmt.Fprintln(cli.out)
			if err != nil {
				return err
			}
			if len(token) == 0 {
				generateCmd.Usage()
				return errHelp
			}
			cli.source.SetToken(string(token))
		}
		ng := bulletin.NewGeneration{
			Period:     *generatePeriod,
			Label:      *generateLabel,
			StudentIDs: splitList(*generateStudents),
		}
		return cli.generate(ng, *generateOut)
	case "evaluate":
		if err := evaluateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*evaluateStates) == "" {
			evaluateCmd.Usage()
			return errHelp
		}
		return cli.evaluate(splitList(*evaluateStates), *evaluateAverage)
	default:
		cli.printUsage()
		return errHelp
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
