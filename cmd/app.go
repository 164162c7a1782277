package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/api"
	"github.com/mzielin/tender-harvester/internal/config"
	"github.com/mzielin/tender-harvester/internal/logging"
	"github.com/mzielin/tender-harvester/internal/store"
	"github.com/mzielin/tender-harvester/internal/telemetry"
)

// App bundles the shared services every subcommand needs. It is built once
// in the root command's PersistentPreRunE and carried through the command
// context.
type App struct {
	Config config.Config
	Logger *zap.Logger
	Client *api.Client
	Store  *store.FileStore

	metricsServer *http.Server
}

// newApp is the application factory. It is a variable so tests can replace
// it with one that returns a canned App.
var newApp = buildApp

func buildApp(cfgFile string) (*App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	telemetry.Init()

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		APIKey:     cfg.API.APIKey,
		RateLimit:  cfg.API.RateLimit,
		Timeout:    cfg.API.Timeout(),
		MaxRetries: cfg.API.MaxRetries,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	st, err := store.New(store.Config{
		DataDir:           cfg.Paths.DataDir,
		TendersDir:        cfg.Paths.TendersDir,
		RawDir:            cfg.Paths.RawDir,
		AttachmentsSubdir: cfg.Paths.AttachmentsSubdir,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		Client: client,
		Store:  st,
	}

	if addr := cfg.Telemetry.ListenAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler())
		app.metricsServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics listener starting", zap.String("addr", addr))
			if err := app.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	return app, nil
}

// OutputPath is the directory filter results are written to.
func (a *App) OutputPath() string {
	return filepath.Join(a.Config.Paths.DataDir, a.Config.Paths.OutputDir)
}

// Close flushes the logger and stops the metrics listener.
func (a *App) Close() {
	if a.metricsServer != nil {
		_ = a.metricsServer.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
