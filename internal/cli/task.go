package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/afaf/accounts/internal/core/domain"
	"github.com/afaf/accounts/internal/core/ports"
	"github.com/afaf/accounts/internal/core/security"
)

type taskOptions struct {
	task     string
	email    string
	name     string
	password string
}

type taskFunc func(ctx context.Context, a *app, opts taskOptions, out io.Writer) error

var tasks = map[string]taskFunc{
	"migrate":       runMigrate,
	"create-admin":  runCreateAdmin,
	"hash-password": runHashPassword,
}

func taskNames() string {
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func newTaskCommand() *cobra.Command {
	var opts taskOptions

	cmd := &cobra.Command{
		Use:   "cli",
		Args:  cobra.NoArgs,
		Short: "Run a one-shot maintenance task",
		Long:  "Run a one-shot maintenance task. Available tasks: " + taskNames() + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, ok := tasks[opts.task]
			if !ok {
				return fmt.Errorf("unknown task %q (available: %s)", opts.task, taskNames())
			}

			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			a.log.Info().Str("task", opts.task).Msg("running cli task")
			return run(cmd.Context(), a, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.task, "task", "t", "", "name of the task to perform")
	cmd.Flags().StringVar(&opts.email, "email", "", "account email (create-admin)")
	cmd.Flags().StringVar(&opts.name, "name", "", "account name (create-admin)")
	cmd.Flags().StringVar(&opts.password, "password", "", "plaintext password (create-admin, hash-password)")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}

func runMigrate(ctx context.Context, a *app, _ taskOptions, out io.Writer) error {
	if err := a.openStore(ctx); err != nil {
		return err
	}
	if err := a.migrate(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%s schema is up to date\n", a.storeName)
	return err
}

func runCreateAdmin(ctx context.Context, a *app, opts taskOptions, out io.Writer) error {
	if opts.email == "" || opts.name == "" || opts.password == "" {
		return errors.New("create-admin requires --email, --name and --password")
	}
	if err := a.openStore(ctx); err != nil {
		return err
	}
	if err := a.migrate(ctx); err != nil {
		return err
	}

	tokens, err := a.tokenService()
	if err != nil {
		return err
	}

	// The operator running the binary is trusted with admin rights.
	account, err := a.accountService(tokens).AdminCreate(ctx, domain.RoleAdmin, ports.AdminCreateInput{
		Name:     opts.name,
		Email:    opts.email,
		Password: opts.password,
		Role:     domain.RoleAdmin.String(),
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "created admin %s (%s)\n", account.Email, account.ID)
	return err
}

func runHashPassword(_ context.Context, a *app, opts taskOptions, out io.Writer) error {
	if opts.password == "" {
		return errors.New("hash-password requires --password")
	}
	digest, err := security.NewBcryptHasher(a.cfg.Auth.BcryptCost).Hash(opts.password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, digest)
	return err
}
