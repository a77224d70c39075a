package cmd

import (
	"context"
	"io"
	"os"

	"github.com/habedi/krakn/auth"
	"github.com/habedi/krakn/client"
	"github.com/habedi/krakn/db"
	"github.com/habedi/krakn/pkg/clierr"
	"github.com/habedi/krakn/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func Execute() {
	rootCmd := createRootCmd()
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(reportError(rootCmd, err))
	}
}

func createRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "krakn",
		Short:         "A terminal dashboard for Kraken energy accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		statusCmd(),
		accountsCmd(),
		usageCmd(),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

// app bundles the session storage, the token store and the API client for one run.
type app struct {
	cfg    *config.Config
	closer io.Closer
	auth   *auth.Service
	api    *client.Client
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, clierr.New(clierr.Validation, err.Error(), err)
	}

	store, closer, err := db.Open(cfg.Storage, cfg.StoragePath())
	if err != nil {
		return nil, clierr.New(clierr.Internal, "Failed to open the session storage.", err)
	}

	api := client.New(
		client.WithTimeout(cfg.Timeout),
		client.WithRetries(cfg.Retries),
		client.WithUserAgent("krakn/"+version),
	)
	log.Debug().Str("storage", cfg.Storage).Str("path", cfg.StoragePath()).Msg("Session storage ready")

	return &app{
		cfg:    cfg,
		closer: closer,
		auth:   auth.NewService(store, api),
		api:    api,
	}, nil
}

func (a *app) close() {
	if err := a.closer.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close the session storage.")
	}
}

// withApp opens the app around a command body.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, a, args)
	}
}
