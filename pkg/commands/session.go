package commands

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tableflip.dev/studyplan/pkg/app"
	"tableflip.dev/studyplan/pkg/commands/options"
	"tableflip.dev/studyplan/pkg/config"
	"tableflip.dev/studyplan/pkg/logging"
	"tableflip.dev/studyplan/pkg/printers"
	"tableflip.dev/studyplan/pkg/syncer"
)

// session runs fn against an open Service and closes it afterwards, which
// flushes a push scheduled by fn's edits.
func session(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return sessionContext(ctx, cmd, fn)
}

func sessionContext(ctx context.Context, cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) error {
	cmd.SilenceUsage = true

	cfg, err := config.Load(root.ConfigFile)
	if err != nil {
		return output.HandleError(err)
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	svc, err := app.Open(ctx, cfg, logger, app.Options{
		Offline:  root.Offline,
		Notifier: cliNotifier(logger),
	})
	if err != nil {
		return output.HandleError(err)
	}

	runErr := fn(ctx, svc)
	if _, err := svc.Close(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("Close failed", zap.Error(err))
	}
	return output.HandleError(runErr)
}

func newLogger(cfg *config.Config) *zap.Logger {
	var console io.Writer = io.Discard
	if root.Verbose {
		console = os.Stderr
	}
	return logging.New(logging.Options{Level: cfg.LogLevel, Path: cfg.LogPath, Console: console})
}

// cliNotifier logs sync outcomes and shows failures on stderr.
func cliNotifier(logger *zap.Logger) syncer.Notifier {
	log := syncer.LogNotifier(logger)
	return syncer.NotifierFunc(func(n syncer.Notification) {
		log.Notify(n)
		switch n.Level {
		case syncer.LevelWarn:
			_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "sync: %s\n", n.Message)
		case syncer.LevelError:
			_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "sync: %s\n", n.Message)
		}
	})
}

func printer(ids *options.IDOptions) *printers.PrettyPrint {
	showID := ids != nil && ids.ShowID
	return printers.New(os.Stdout, showID)
}

// signedIn returns the session user or an error explaining how to get one.
func signedIn(svc *app.Service) (string, error) {
	if uid := svc.UserID(); uid != "" {
		return uid, nil
	}
	return "", errors.New("not signed in, run `studyplan auth signin` first")
}
