package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/fixtures"
	"github.com/study-on/billing/internal/jobs"
	"github.com/study-on/billing/internal/pkg/postgres"
	"github.com/study-on/billing/internal/version"
)

var (
	readPasswordFunc = term.ReadPassword

	errHelp = errors.New("help provided")
)

// tasks are the operations that need a database connection.
type tasks interface {
	Seed(ctx context.Context) (fixtures.Result, error)
	CreateAdmin(ctx context.Context, email, password string) (*domain.User, error)
	NotifyExpiring(ctx context.Context) (jobs.NotifyResult, error)
	Report(ctx context.Context) (jobs.Report, error)
}

type commandLine struct {
	migrate func(direction postgres.MigrateDirection) error
	// open connects to the database. The returned func releases it.
	open func() (tasks, func(), error)
	out  io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate up|down                - apply or revert schema migrations")
	_, _ = fmt.Fprintln(cli.out, "  seed                           - load demo users, courses and transactions")
	_, _ = fmt.Fprintln(cli.out, "  create-admin -email EMAIL      - create or promote a super admin; the password is prompted")
	_, _ = fmt.Fprintln(cli.out, "  notify-expiring                - mail users whose rentals expire within a day")
	_, _ = fmt.Fprintln(cli.out, "  report                         - mail the billing report for the last 30 days")
	_, _ = fmt.Fprintln(cli.out, "  version                        - print build information")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	createAdminCmd.SetOutput(cli.out)
	createAdminEmail := createAdminCmd.String("email", "", "The admin's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) != 3 {
			cli.printUsage()
			return errHelp
		}
		direction := postgres.MigrateDirection(args[2])
		if direction != postgres.MigrateUp && direction != postgres.MigrateDown {
			return fmt.Errorf("%q: no such migrate direction", args[2])
		}
		return cli.migrate(direction)

	case "version":
		_, _ = fmt.Fprintln(cli.out, version.String())
		return nil

	case "seed":
		return cli.withTasks(func(t tasks) error {
			result, err := t.Seed(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "seeded %d users, %d courses, %d transactions\n",
				result.Users, result.Courses, result.Transactions)
			return nil
		})

	case "create-admin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		email := strings.TrimSpace(*createAdminEmail)
		if email == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		_, _ = fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		_, _ = fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			createAdminCmd.Usage()
			return errHelp
		}
		return cli.withTasks(func(t tasks) error {
			user, err := t.CreateAdmin(ctx, email, string(pwd))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "admin %s ready (id %s)\n", user.Email, user.ID)
			return nil
		})

	case "notify-expiring":
		return cli.withTasks(func(t tasks) error {
			result, err := t.NotifyExpiring(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "checked %d users, sent %d notices\n", result.UsersChecked, result.MailsSent)
			return nil
		})

	case "report":
		return cli.withTasks(func(t tasks) error {
			report, err := t.Report(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "report sent: %d courses, %d payments, total %s\n",
				len(report.Courses), report.TotalCount, report.TotalAmount.StringFixed(2))
			return nil
		})

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) withTasks(fn func(t tasks) error) error {
	t, closeFn, err := cli.open()
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(t)
}
