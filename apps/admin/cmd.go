package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
	"github.com/trezcool/quizadmin/core/user"
	"github.com/trezcool/quizadmin/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword       // mockable
	migrateFunc      = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	usrSvc   *user.Service
	store    *notification.TemplateStore
	composer *notification.Composer
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version)")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL [-temporary] - reset user's password")
	fmt.Fprintln(cli.out, "  adduser -name NAME -username USERNAME -email EMAIL -role ROLE - create a user with a temporary password")
	fmt.Fprintln(cli.out, "  seedtemplates - insert the missing built-in email templates")
	fmt.Fprintln(cli.out, "  compose -session ID [-lang LANG] [-override LANG] - preview a session's result notification")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")
	resetPasswordTemp := resetPasswordCmd.Bool("temporary", false, "Require a password change at next login.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email; the credentials are sent there.")
	addUserRole := addUserCmd.String("role", user.RoleExpert, "One of admin, expert or examinee.")
	addUserDept := addUserCmd.String("department", "", "The user's department.")
	addUserLang := addUserCmd.String("language", "", "The user's preferred language.")

	composeCmd := flag.NewFlagSet("compose", flag.ContinueOnError)
	composeSession := composeCmd.String("session", "", "The exam session id.")
	composeLang := composeCmd.String("lang", "", "The preferred language.")
	composeOverride := composeCmd.String("override", "", "A language that wins over every other.")

	for _, fs := range []*flag.FlagSet{resetPasswordCmd, addUserCmd, composeCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return migrateFunc(ctx, cli.db, args[2], args[3:]...)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordUname, string(pwd), *resetPasswordTemp)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, user.NewUser{
			FullName:   *addUserName,
			Username:   *addUserUname,
			Email:      *addUserEmail,
			Role:       *addUserRole,
			Department: *addUserDept,
			Language:   *addUserLang,
		})

	case "seedtemplates":
		added, err := cli.store.SeedDefaults(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%d template(s) added\n", added)
		return nil

	case "compose":
		if err := composeCmd.Parse(args[2:]); err != nil {
			return err
		}
		id, err := strconv.Atoi(*composeSession)
		if err != nil {
			composeCmd.Usage()
			return errHelp
		}
		return cli.compose(ctx, id, *composeLang, *composeOverride)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string, temporary bool) error {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd, temporary)
	return err
}

func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) error {
	usr, pwd, err := cli.usrSvc.CreateWithTemporaryPassword(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %q created (id %d), temporary password: %s\n", usr.Username, usr.ID, pwd)
	return nil
}

func (cli *commandLine) compose(ctx context.Context, sessionID int, lang, override string) error {
	n, err := cli.composer.Compose(ctx, sessionID, lang, override)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "To: %s <%s>\n", n.RecipientName, n.Recipient)
	fmt.Fprintf(cli.out, "Kind: %s (%s)\n", n.Kind, n.Language)
	fmt.Fprintf(cli.out, "Subject: %s\n\n%s\n", n.Subject, n.Body)
	if err = notification.CheckRecipient(n); err != nil {
		fmt.Fprintf(cli.out, "\nwarning: %v\n", err)
	}
	return nil
}

// errMessage flattens validation errors for the terminal.
func errMessage(err error) string {
	var verr *core.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		msg := ""
		for _, fe := range verr.Fields {
			msg += fmt.Sprintf("\n  %s: %s", fe.Field, fe.Error)
		}
		return "invalid input:" + msg
	}
	return err.Error()
}
