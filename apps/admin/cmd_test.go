package main

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
	"github.com/adminzone/backend/core/user"
	"github.com/adminzone/backend/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.Env) {
	env := testutil.NewEnv(t)

	// start CLI
	return &commandLine{
		db:       env.DB,
		usrSvc:   env.UserSvc,
		validate: env.Validate,
		logger:   env.Logger,
	}, env
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	origRun := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = origRun })
	gooseRunFunc = func(_ context.Context, _ *sqlx.DB, command string, args ...string) error {
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
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}

func mockPassword(t *testing.T, pwd string) {
	origRead := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = origRead })
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env := setup(t)
	ctx := context.Background()

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "decan"}, wantErr: errHelp},
		{
			name:       "invalid role",
			args:       []string{"adduser", "-username", "decan", "-role", "rector"},
			extra:      extra{pwd: "Parola#2024"},
			wantErrStr: "failed on the 'allroles' tag",
		},
		{name: "create", args: []string{"adduser", "-username", "Decan", "-role", "admin"}, extra: extra{pwd: "Parola#2024"}},
		{name: "update", args: []string{"adduser", "-username", "decan", "-role", "professor"}, extra: extra{pwd: "Parola#2025"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			var pwd string
			if e, ok := tt.extra.(extra); ok {
				pwd = e.pwd
			}
			mockPassword(t, pwd)
			checkErr(t, tt, cli.run(args))
		})
	}

	usr, err := env.UserSvc.Get(ctx, "decan")
	require.NoError(t, err)
	assert.True(t, usr.Enabled)
	assert.Equal(t, []string{user.RoleProfessor}, usr.Roles)
	assert.NoError(t, usr.CheckPassword("Parola#2025"))

	entries := env.AuditEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionUpdate, entries[0].Action)
	assert.Equal(t, audit.ActionCreate, entries[1].Action)
	assert.Equal(t, core.AnonymousUsername, entries[0].Username)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "secretar", "Parola#2024", true, user.RoleSecretary)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "Parola#2025"}, wantErr: user.ErrNotFound},
		{
			name:       "weak password",
			args:       []string{"resetpassword", "-username", usr.Username},
			extra:      extra{pwd: "123456789"},
			wantErrStr: "failed on the 'pwdnotallnum' tag",
		},
		{name: "reset", args: []string{"resetpassword", "-username", "Secretar"}, extra: extra{pwd: "Parola#2025"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			var pwd string
			if e, ok := tt.extra.(extra); ok {
				pwd = e.pwd
			}
			mockPassword(t, pwd)
			checkErr(t, tt, cli.run(args))
		})
	}

	refreshed, err := env.UserSvc.Get(context.Background(), usr.Username)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("Parola#2025"))
}

func Test_commandLine_seed(t *testing.T) {
	cli, env := setup(t)
	testutil.CreateUser(t, env.UserRepo, "admin", "Parola#2024", true, user.RoleAdmin)

	for i := 0; i < 2; i++ {
		require.NoError(t, cli.run([]string{"admin", "seed"}))
	}

	tests := []struct {
		username string
		role     string
		pwd      string
	}{
		{username: "admin", role: user.RoleAdmin, pwd: "Parola#2024"},
		{username: "secretar", role: user.RoleSecretary, pwd: seedPassword},
		{username: "profesor", role: user.RoleProfessor, pwd: seedPassword},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			usr, err := env.UserSvc.Get(context.Background(), tt.username)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.role}, usr.Roles)
			assert.NoError(t, usr.CheckPassword(tt.pwd))
		})
	}

	// existing accounts are left untouched
	assert.Len(t, env.AuditEntries(t), 2)
}
