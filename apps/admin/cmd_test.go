package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
	"github.com/trezcool/quizadmin/core/user"
	"github.com/trezcool/quizadmin/services/cache"
	"github.com/trezcool/quizadmin/services/email"
	"github.com/trezcool/quizadmin/storage/database/inmem"
	"github.com/trezcool/quizadmin/tests"
)

type testCLI struct {
	*commandLine
	usrRepo  user.Repository
	sessions interface{ SaveSession(inmemdb.Session) }
	mailSvc  *emailsvc.ConsoleServiceMock
	buf      *bytes.Buffer
}

func setup(t *testing.T) *testCLI {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(t)
	validate, translator := testutil.NewValidator()

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	sessions := inmemdb.NewSessionRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	store := notification.NewTemplateStore(inmemdb.NewTemplateRepository(db), cachesvc.NewMemory(), validate, conf, logger)

	var buf bytes.Buffer
	return &testCLI{
		commandLine: &commandLine{
			usrSvc:   user.NewService(usrRepo, mailSvc, validate, translator, conf, logger),
			store:    store,
			composer: notification.NewComposer(sessions, store, nil),
			out:      &buf,
		},
		usrRepo:  usrRepo,
		sessions: sessions,
		mailSvc:  mailSvc,
		buf:      &buf,
	}
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
	if err == nil {
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
		return
	}
	if tt.wantErr != nil {
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	} else if tt.wantErrStr != "" {
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	} else {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	defer func(orig func(context.Context, *sqlx.DB, string, ...string) error) { migrateFunc = orig }(migrateFunc)
	migrateFunc = func(_ context.Context, _ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
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
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "email_templates", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, cli.usrRepo, "User", "awe", "awe@test.cd", "Old-Pa$$w0rd", user.RoleExpert, true)

	defer func(orig func(int) ([]byte, error)) { readPasswordFunc = orig }(readPasswordFunc)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "N3w-Pa$$w0rd"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "N3w-Pa$$w0rd"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email, "-temporary"}, extra: extra{pwd: "Th1rd-Pa$$w0rd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, tt, err)
			if err == nil {
				refreshedUsr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				usr = refreshedUsr
			}
		})
	}

	assert.True(t, usr.PasswordChangeRequired)

	t.Run("weak password", func(t *testing.T) {
		readPasswordFunc = func(int) ([]byte, error) { return []byte("password"), nil }
		err := cli.run([]string{"admin", "resetpassword", "-username", usr.Username})

		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, errMessage(err), "invalid input:")
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no flags", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "bob"}, wantErr: errHelp},
		{name: "created", args: []string{"adduser", "-name", "Bob Expert", "-username", "bob", "-email", "bob@test.co"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	usr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleExpert, usr.Role)
	assert.True(t, usr.PasswordChangeRequired)
	assert.Contains(t, cli.buf.String(), `user "bob" created`)
	assert.Len(t, cli.mailSvc.SentMessages(), 1)

	t.Run("duplicate", func(t *testing.T) {
		err := cli.run([]string{"admin", "adduser", "-name", "Bob", "-username", "bob", "-email", "bob@test.co"})
		var verr *core.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func Test_commandLine_seedTemplates(t *testing.T) {
	cli := setup(t)

	require.NoError(t, cli.run([]string{"admin", "seedtemplates"}))
	assert.Contains(t, cli.buf.String(), fmt.Sprintf("%d template(s) added", len(notification.DefaultTemplates())))

	cli.buf.Reset()
	require.NoError(t, cli.run([]string{"admin", "seedtemplates"}))
	assert.Contains(t, cli.buf.String(), "0 template(s) added")
}

func Test_commandLine_compose(t *testing.T) {
	cli := setup(t)
	_, err := cli.store.SeedDefaults(context.Background())
	require.NoError(t, err)

	score, passing, show := 55.0, 70.0, true
	cli.sessions.SaveSession(inmemdb.Session{
		ID: 7, Email: "zoe@test.co", FullName: "Zoe", Language: "en", AssignmentName: "Safety",
		Score: &score, PassingScore: &passing, ShowResults: &show, TotalQuestions: 10, Correct: 5, Answered: 10,
	})

	tests := []cliTest{
		{name: "no session", args: []string{"compose"}, wantErr: errHelp},
		{name: "unknown session", args: []string{"compose", "-session", "99"}, wantErr: notification.ErrSessionNotFound},
		{name: "ok", args: []string{"compose", "-session", "7"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	out := cli.buf.String()
	assert.Contains(t, out, "To: Zoe <zoe@test.co>")
	assert.Contains(t, out, "Kind: failed (en)")
	assert.False(t, strings.Contains(out, "warning:"))
	assert.Empty(t, cli.mailSvc.SentMessages())
}
