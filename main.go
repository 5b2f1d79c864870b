package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/llehouerou/chime/internal/artwork"
	"github.com/llehouerou/chime/internal/catalog"
	"github.com/llehouerou/chime/internal/config"
	"github.com/llehouerou/chime/internal/mpris"
	"github.com/llehouerou/chime/internal/notifier"
	"github.com/llehouerou/chime/internal/player"
	"github.com/llehouerou/chime/internal/session"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),

		fx.Provide(
			newConfig,
			newLogger,
			newSource,
			newPlayer,
			session.NewStore,
			newService,
		),

		fx.Invoke(
			registerCatalogLoad,
			registerNotifier,
			registerMPRIS,
		),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		os.Exit(1)
	}

	<-ctx.Done()

	if err := app.Stop(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newConfig() (*config.Config, error) {
	return config.Load()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func newSource(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (catalog.Source, error) {
	cachePath, err := cfg.CatalogCachePath()
	if err != nil {
		return nil, err
	}
	cache, err := catalog.OpenCache(cachePath)
	if err != nil {
		return nil, err
	}
	src := catalog.NewJSONSource(cfg.CatalogURL, cache, log)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return cache.Close()
		},
	})
	return src, nil
}

func newPlayer(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) player.Interface {
	p := player.New(log)
	p.SetRepeatMode(repeatModeFor(cfg.Player.RepeatMode))
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return p.Close()
		},
	})
	return p
}

func repeatModeFor(mode string) player.RepeatMode {
	switch mode {
	case "off":
		return player.RepeatOff
	case "one":
		return player.RepeatOne
	default:
		return player.RepeatAll
	}
}

func newService(lc fx.Lifecycle, log *zap.Logger, src catalog.Source, p player.Interface, store *session.Store) session.Service {
	svc := session.New(log, src, p, store)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return svc.Close()
		},
	})
	return svc
}

// registerCatalogLoad kicks off the catalog download once the app is up.
// Playback requests issued before the load completes are queued by the
// source and resolved when it finishes.
func registerCatalogLoad(lc fx.Lifecycle, src catalog.Source, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := src.Load(context.Background()); err != nil {
					log.Warn("catalog load failed", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

func registerNotifier(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc session.Service) error {
	if !cfg.NotificationsEnabled() {
		return nil
	}

	host, err := notifier.NewHost(log)
	if err != nil {
		return err
	}

	var art notifier.ArtSource
	if cfg.ArtworkEnabled() {
		art = artwork.NewFetcher(log)
	}

	opts := notifier.DefaultOptions()
	opts.UseNavigationActions = cfg.NavigationActions()
	opts.UseRewindActions = cfg.RewindActions()
	opts.UseStopAction = cfg.StopAction()

	mgr := notifier.NewManager(log, host, notifier.NewForeground(log), art, opts)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			mgr.SetService(svc)
			return nil
		},
		OnStop: func(_ context.Context) error {
			if err := mgr.Close(); err != nil {
				return err
			}
			return host.Close()
		},
	})
	return nil
}

func registerMPRIS(lc fx.Lifecycle, log *zap.Logger, svc session.Service) {
	var adapter *mpris.Adapter
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			a, err := mpris.New(svc)
			if err != nil {
				log.Warn("mpris unavailable", zap.Error(err))
				return nil
			}
			adapter = a
			return nil
		},
		OnStop: func(_ context.Context) error {
			if adapter == nil {
				return nil
			}
			return adapter.Close()
		},
	})
}
