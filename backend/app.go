package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/20after4/configdir"
	"github.com/dweymouth/autopause/backend/autopause"
	"github.com/dweymouth/autopause/backend/bus"
	"github.com/dweymouth/autopause/backend/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const configFile = "config.toml"

// Options are the command line settings.
type Options struct {
	Verbosity int
	// Config file to read instead of the one in the user config dir.
	ConfigPath string
}

type App struct {
	Config      *Config
	Session     *bus.Session
	Tracker     *autopause.Tracker
	Coordinator *autopause.Coordinator

	appName    string
	configPath string
	log        zerolog.Logger
}

func StartupApp(ctx context.Context, appName string, opts Options) (*App, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = filepath.Join(configdir.LocalConfig(appName), configFile)
	}

	a := &App{
		appName:    appName,
		configPath: filepath.Clean(cfgPath),
	}
	readErr := a.readConfig()

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LevelForVerbosity(opts.Verbosity)
	logCfg.Format = a.Config.Log.Format
	a.log = logging.New(logCfg)
	ctx = logging.WithContext(ctx, a.log)
	log := logging.FromContext(ctx)

	log.Info().Str("app", appName).Str("config", a.configPath).Msg("starting")
	if readErr != nil {
		log.Warn().Err(readErr).Msg("config: error reading config file, using defaults")
	}

	session, err := bus.Connect(ctx)
	if err != nil {
		return nil, err
	}
	a.Session = session
	a.Tracker = autopause.NewTracker(session, a.Config.AutopauseTarget())
	a.Coordinator = autopause.NewCoordinator(session, a.Tracker)

	if err := a.Tracker.Subscribe(session); err != nil {
		session.Close()
		return nil, fmt.Errorf("subscribe to name ownership changes: %w", err)
	}
	if err := a.Coordinator.Subscribe(session); err != nil {
		session.Close()
		return nil, fmt.Errorf("subscribe to player property changes: %w", err)
	}

	// the loop is not running yet, so probing here cannot race a handler
	a.Tracker.Probe(ctx)

	return a, nil
}

func (a *App) ConfigPath() string {
	return a.configPath
}

// Run processes bus events until ctx is cancelled or the bus connection drops.
func (a *App) Run(ctx context.Context) error {
	ctx = logging.WithContext(ctx, a.log)
	a.startConfigWatcher(ctx)
	return a.Session.Run(ctx)
}

func (a *App) Shutdown() {
	a.log.Info().Msg("shutting down")
	if err := a.Session.Close(); err != nil {
		a.log.Debug().Err(err).Msg("bus: error closing connection")
	}
}

// readConfig loads the optional config file. The file is never created or modified;
// a missing file means defaults, a malformed one means defaults plus an error.
func (a *App) readConfig() error {
	cfg, err := ReadConfigFile(a.configPath)
	if err != nil {
		a.Config = DefaultConfig()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	a.Config = cfg
	return nil
}

// reloadConfig runs on the event loop after the config file changed on disk.
func (a *App) reloadConfig(ctx context.Context) {
	log := logging.FromContext(ctx)

	cfg, err := ReadConfigFile(a.configPath)
	if err != nil {
		log.Warn().Err(err).Msg("config: reload failed, keeping current settings")
		return
	}
	old := a.Config
	a.Config = cfg
	if cfg.Target == old.Target {
		log.Debug().Msg("config: reloaded, target unchanged")
		return
	}
	a.Coordinator.Reset()
	a.Tracker.Retarget(ctx, cfg.AutopauseTarget())
}

// startConfigWatcher posts a reload onto the event loop whenever the config file is written.
func (a *App) startConfigWatcher(ctx context.Context) {
	log := logging.FromContext(logging.WithComponent(ctx, "config-watcher"))

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("config: cannot watch config file")
		return
	}
	// watch the directory, editors often replace the file rather than write to it
	if err := w.Add(filepath.Dir(a.configPath)); err != nil {
		w.Close()
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Msg("config: no config dir, not watching")
		} else {
			log.Warn().Err(err).Msg("config: cannot watch config dir")
		}
		return
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !isConfigWrite(ev, a.configPath) {
					continue
				}
				log.Debug().Str("op", ev.Op.String()).Msg("config: file changed")
				a.Session.Post(ctx, a.reloadConfig)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("config: watcher error")
			}
		}
	}()
}

func isConfigWrite(ev fsnotify.Event, configPath string) bool {
	return filepath.Clean(ev.Name) == configPath && ev.Op&(fsnotify.Write|fsnotify.Create) != 0
}
