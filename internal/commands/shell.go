package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hmeicr/hmeicr/internal/api"
	"github.com/hmeicr/hmeicr/internal/app"
	"github.com/hmeicr/hmeicr/internal/auditlog"
	"github.com/hmeicr/hmeicr/internal/console"
	"github.com/hmeicr/hmeicr/internal/logging"
	"github.com/hmeicr/hmeicr/internal/session"
)

func newShellCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session against the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, flags)
		},
	}
}

func runShell(cmd *cobra.Command, flags *globalFlags) error {
	cfg, path, err := flags.loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// The client reads the token through the store, which is built after it.
	var store *session.Store
	client, err := api.New(cfg.Server.BaseURL,
		api.WithTokenSource(api.TokenFunc(func() string { return store.CSRFToken() })),
		api.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	store = session.NewStore(client, logger)

	ctx := cmd.Context()
	store.Init(ctx)

	audit := &auditlog.Log{
		Path: auditPath(path),
		OnError: func(err error) {
			logger.Warn("writing audit log", zap.Error(err))
		},
	}
	ctrl := app.New(app.Options{
		Backend:  client,
		Sessions: store,
		Audit:    audit,
		Logger:   logger,
	})

	logger.Info("shell started", zap.String("server", client.BaseURL()))
	themes := &themeFile{path: path, current: cfg.UI.Theme}
	return console.New(ctrl, themes, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
}
