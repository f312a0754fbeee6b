package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/afaf/accounts/internal/api"
	"github.com/afaf/accounts/internal/core/service"
	"github.com/afaf/accounts/internal/infrastructure/db/redis"
	"github.com/afaf/accounts/internal/infrastructure/queue"
)

const shutdownTimeout = 15 * time.Second

func newServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "server",
		Aliases: []string{"serve"},
		Args:    cobra.NoArgs,
		Short:   "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx)
		},
	}
}

func runServer(ctx context.Context) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if err := a.openStore(ctx); err != nil {
		return err
	}
	if err := a.migrate(ctx); err != nil {
		return err
	}
	if err := a.openRedis(ctx); err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(a.cfg.Audit.Workers, a.events, a.log.With().Str("component", "audit").Logger())
	dispatcher.Start()
	defer dispatcher.Close()

	tokens, err := a.tokenService()
	if err != nil {
		return err
	}
	accounts := a.accountService(tokens,
		service.WithLoginThrottle(redis.NewLoginThrottle(a.rdb, a.cfg.Auth.LoginMaxAttempts, a.cfg.Auth.LoginLockout)),
		service.WithAuditRecorder(dispatcher),
	)

	e := api.NewRouter(api.Dependencies{
		Accounts:  accounts,
		Tokens:    tokens,
		Store:     a.accounts,
		StoreName: a.storeName,
		Redis:     a.rdb,
		Log:       a.log,
	})

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", a.cfg.Port).Str("env", a.cfg.Env).Msg("http server listening")
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("http shutdown")
		return err
	}
	return nil
}
