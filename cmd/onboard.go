package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/meetwise/internal/google"
	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/server"
)

func newOnboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Serve the calendar sharing web flow",
		Long: `Serve the page users visit to share their primary calendar with the
service account. The OAuth client secret is read from
onboarding.client_secret_file and the callback is onboarding.url + /oauth2callback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnboard()
		},
	}
}

func runOnboard() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sa, err := google.LoadServiceAccount(cfg.CredentialsFile, google.ServiceAccountScopes...)
	if err != nil {
		return fmt.Errorf("failed to load service account: %w", err)
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	srv, err := newOnboardingServer(provider.Metrics(), sa)
	if err != nil {
		return err
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverDone:
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
