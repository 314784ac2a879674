package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	plugininadapter "mobtime/internal/modules/plugin/adapter/in"
	pluginoutadapter "mobtime/internal/modules/plugin/adapter/out"
	pluginin "mobtime/internal/modules/plugin/port/in"
	pluginservice "mobtime/internal/modules/plugin/service"
	pluginusecase "mobtime/internal/modules/plugin/usecase"
	sessioninadapter "mobtime/internal/modules/session/adapter/in"
	sessionoutadapter "mobtime/internal/modules/session/adapter/out"
	sessionin "mobtime/internal/modules/session/port/in"
	sessionservice "mobtime/internal/modules/session/service"
	sessionusecase "mobtime/internal/modules/session/usecase"
	"mobtime/internal/platform/clock"
	"mobtime/internal/platform/config"
	"mobtime/internal/platform/id"
	"mobtime/internal/platform/logging"
	uiapp "mobtime/internal/ui/app"
)

// Options tweaks process-level wiring that differs between commands.
type Options struct {
	// LogToStderr mirrors log lines to stderr in addition to the log file.
	// The terminal UI must leave this off since it owns the screen.
	LogToStderr bool
}

type App struct {
	Config     config.Config
	Logger     *slog.Logger
	SessionCLI sessioninadapter.CLIHandler
	PluginCLI  plugininadapter.CLIHandler
	Session    sessionin.Usecase
	Plugins    pluginin.Usecase

	hooks   *sessionoutadapter.PluginHookPublisher
	history *sessionoutadapter.SQLiteHistoryStore
	logFile *os.File
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logFile, err := logging.OpenFile(cfg.LogPath)
	if err != nil {
		return nil, err
	}
	var logOut io.Writer = logFile
	if opts.LogToStderr {
		logOut = io.MultiWriter(logFile, os.Stderr)
	}
	logger := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)

	pluginUC := pluginusecase.NewInteractor(pluginservice.NewPluginService(
		pluginoutadapter.NewFileManifestStore(cfg.PluginsPath),
		pluginoutadapter.NewGRPCHost(logging.Plugin(logOut, cfg.LogLevel, cfg.LogFormat)),
		logger.With("module", "plugin"),
	))

	history, err := sessionoutadapter.NewSQLiteHistoryStore(cfg.DBPath)
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("new history store: %w", err)
	}
	hooks := sessionoutadapter.NewPluginHookPublisher(pluginUC, logger.With("module", "hooks"))

	svc := sessionservice.NewSessionService(clock.System(), id.UUID{}, sessionservice.Ports{
		Snapshots: sessionoutadapter.NewFileSnapshotStore(cfg.SnapshotPath),
		Sound:     sessionoutadapter.NewOSSoundPlayer(),
		Notifier:  sessionoutadapter.NewOSNotifier(),
		History:   history,
		Hooks:     hooks,
	}, logger.With("module", "session"), cfg.SoundAsset)
	svc.Load(ctx)

	sessionUC := sessionusecase.NewInteractor(
		svc,
		history,
		sessionoutadapter.NewVaultHistoryExporter("", time.Now),
		sessionoutadapter.NewHTTPAvatarProber(nil, cfg.AvatarProbeTimeout),
	)

	logger.Debug("app wired", "home", cfg.HomePath, "db", cfg.DBPath, "plugins", cfg.PluginsPath)
	return &App{
		Config:     cfg,
		Logger:     logger,
		SessionCLI: sessioninadapter.NewCLIHandler(sessionUC),
		PluginCLI:  plugininadapter.NewCLIHandler(pluginUC),
		Session:    sessionUC,
		Plugins:    pluginUC,
		hooks:      hooks,
		history:    history,
		logFile:    logFile,
	}, nil
}

// Close waits for in-flight hook deliveries, then releases the history
// database and the log file.
func (a *App) Close() error {
	a.hooks.Wait()
	return errors.Join(a.history.Close(), a.logFile.Close())
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.Session, app.Plugins, app.Config.TickInterval)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
