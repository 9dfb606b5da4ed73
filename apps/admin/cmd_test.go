package main

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"io/ioutil"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/bulletin"
	"github.com/GithubESPI/bulletins/core/grading"
	emailsvc "github.com/GithubESPI/bulletins/services/email"
	logsvc "github.com/GithubESPI/bulletins/services/logger"
	"github.com/GithubESPI/bulletins/storage/database"
	inmemdb "github.com/GithubESPI/bulletins/storage/database/inmem"
)

type fakeSource struct {
	token string
}

func (s *fakeSource) SetToken(token string) { s.token = token }

func (s *fakeSource) Students(_ context.Context, _ string) ([]bulletin.Student, error) {
	return []bulletin.Student{{ID: "42", FirstName: "Alice", LastName: "Durand"}}, nil
}

func (s *fakeSource) SubjectStates(_ context.Context, _ string) ([]bulletin.SubjectStateRow, error) {
	return []bulletin.SubjectStateRow{{StudentID: "42", UnitCode: "U1", UnitName: "Gestion", Etat: "VA"}}, nil
}

func (s *fakeSource) UnitAverages(_ context.Context, _ string) ([]grading.UeAverageRow, error) {
	return []grading.UeAverageRow{{CodeApprenant: "42", CodeUE: "U1", MoyenneUE: "12"}}, nil
}

func setup(t *testing.T, hasToken bool) (*commandLine, *fakeSource, *bytes.Buffer) {
	conf := &core.Config{Env: "TEST", TestMode: true, AppName: "Bulletins", Bulletin: core.BulletinConfig{Workers: 1}}

	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	src := new(fakeSource)
	out := new(bytes.Buffer)
	return &commandLine{
		out: out,
		openDB: func() (*sql.DB, error) {
			return sql.Open("postgres", "postgres://localhost/bulletins_test?sslmode=disable") // lazy
		},
		bulletinSvc: bulletin.NewService(conf, logger, src, inmemdb.NewJobRepository(), emailsvc.NewConsoleServiceMock(conf)),
		validate:    validate,
		source:      src,
		hasToken:    hasToken,
	}, src, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	if err != nil {
		if tt.wantErr != nil {
			if err != tt.wantErr {
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
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t, true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
	assert.Contains(t, out.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t, true)

	var gotDir string
	origRun := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = origRun })
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		gotDir = dir
		if _, err := fs.Stat(fsys, dir+"/00001_create_job_table.sql"); err != nil {
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

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "archive_size", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
	assert.Equal(t, database.MigrationsDir, gotDir)
}

func Test_commandLine_generate(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "s1.zip")

	type extra struct {
		token string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"generate"}, wantErr: errHelp},
		{name: "no token", args: []string{"generate", "-period", "S1"}, wantErr: errHelp},
		{name: "invalid period", args: []string{"generate", "-period", "S1 S2"}, extra: extra{token: "secret"}, wantErrStr: "Key: 'NewGeneration.period' Error:Field validation for 'period' failed on the 'code' tag"},
		{name: "generate", args: []string{"generate", "-period", "S1", "-label", "Semestre 1", "-students", "42, ", "-out", out}, extra: extra{token: "secret"}},
	}
	origRead := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = origRead })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, src, _ := setup(t, false)
			readPasswordFunc = func(fd int) ([]byte, error) {
				if extra, ok := tt.extra.(extra); ok {
					return []byte(extra.token), nil
				}
				return nil, nil
			}

			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
			if extra, ok := tt.extra.(extra); ok {
				assert.Equal(t, extra.token, src.token)
			}
		})
	}

	content, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "DURAND_Alice_42.html", zr.File[0].Name)
}

func Test_commandLine_generate_noStudents(t *testing.T) {
	cli, _, _ := setup(t, true)

	err := cli.run([]string{"admin", "generate", "-period", "S1", "-students", "99"})
	require.Error(t, err)
	assert.True(t, strings.HasSuffix(err.Error(), bulletin.ErrNoStudents.Error()))

	verr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok)
	assert.Equal(t, bulletin.ErrNoStudents, verr.Err)
}

func Test_commandLine_evaluate(t *testing.T) {
	cli, _, out := setup(t, true)

	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"-states", "VA,VA"}, want: "VA (Validé)\n"},
		{args: []string{"-states", "VA,C", "-average", "12,5"}, want: "VA (Validé)\n"},
		{args: []string{"-states", "C", "-average", "9.5"}, want: "NV (Non validé)\n"},
		{args: []string{"-states", "C"}, want: "NV (Non validé)\n"},
		{args: []string{"-states", " va , r ", "-average", "18"}, want: "NV (Non validé)\n"},
	}
	for _, tt := range tests {
		out.Reset()
		require.NoError(t, cli.run(append([]string{"admin", "evaluate"}, tt.args...)))
		assert.Equal(t, tt.want, out.String(), "%v", tt.args)
	}

	assert.Equal(t, errHelp, cli.run([]string{"admin", "evaluate"}))
}
