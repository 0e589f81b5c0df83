package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MatsPresent/Engine/internal/config"
	"github.com/MatsPresent/Engine/internal/render"
	"github.com/MatsPresent/Engine/internal/scene"
	"github.com/MatsPresent/Engine/internal/scripting"
	"github.com/MatsPresent/Engine/internal/world"
)

const defaultConfigPath = "config/engine.toml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := defaultConfigPath
	if p := os.Getenv("MULTIVERSE_CONFIG"); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the TOML config file")
	scenePath := flag.String("scene", "", "scene file, overrides engine.scene")
	frames := flag.Int("frames", 0, "stop after this many frames (0 = run until signalled)")
	watch := flag.Bool("watch", true, "reload the config file when it changes")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(cfgPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && cfgPath == defaultConfigPath:
		cfg = config.Default()
		*watch = false
	case err != nil:
		return fmt.Errorf("load config: %w", err)
	}
	if *scenePath != "" {
		cfg.Engine.Scene = *scenePath
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	switch cfg.Engine.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	// 3. Scripts and scene
	scripts, err := scripting.NewEngine(cfg.Engine.Scripts, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer scripts.Close()

	sc, err := scene.Load(cfg.Engine.Scene)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}

	w := world.New(cfg.Engine.Workers, log)
	defer w.Close()
	scripts.Bind(w)

	backend := render.NewLogBackend(log.Named("render"))
	universes, err := sc.Spawn(w, scene.Options{
		Grid: world.GridConfig{
			CellCountX: cfg.Grid.CellCountX,
			CellCountY: cfg.Grid.CellCountY,
			CellSizeX:  cfg.Grid.CellSizeX,
			CellSizeY:  cfg.Grid.CellSizeY,
		},
		UpdateInterval: cfg.Engine.TickRate,
		RenderInterval: cfg.Engine.RenderRate,
		Backend:        backend,
		Scripts:        scripts,
		Log:            log,
	})
	if err != nil {
		return fmt.Errorf("spawn scene: %w", err)
	}
	log.Info("scene loaded",
		zap.String("path", cfg.Engine.Scene),
		zap.Int("universes", len(universes)),
		zap.Int("entities", sc.Entities()),
		zap.Int("workers", cfg.Engine.Workers))

	// 4. Config hot reload
	var updates <-chan *config.Config
	if *watch {
		watcher, err := config.Watch(cfgPath, log)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer watcher.Close()
		updates = watcher.Updates
	}

	// 5. Main loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	frame := frameInterval(cfg.Engine)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	log.Info("main loop started", zap.Duration("frame", frame), zap.Duration("tick", cfg.Engine.TickRate))

	last := time.Now()
	count := 0
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := w.Update(dt); err != nil {
				log.Error("update failed", zap.Error(err))
			}
			if err := w.Render(dt); err != nil {
				log.Error("render failed", zap.Error(err))
			}
			count++
			if *frames > 0 && count >= *frames {
				log.Info("frame limit reached", zap.Int("frames", count), zap.Uint64("draws", backend.Draws()))
				return nil
			}
		case next, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			applyRates(w, cfg.Engine, next.Engine)
			if f := frameInterval(next.Engine); f != frame {
				frame = f
				ticker.Reset(frame)
			}
			cfg = next
			log.Info("rates applied",
				zap.Duration("tick", cfg.Engine.TickRate),
				zap.Duration("render", cfg.Engine.RenderRate))
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
}

// frameInterval is the wall-clock period of the main loop: the faster of
// the two configured rates, or 60 Hz when both are zero.
func frameInterval(e config.EngineConfig) time.Duration {
	f := time.Duration(0)
	for _, d := range []time.Duration{e.TickRate, e.RenderRate} {
		if d > 0 && (f == 0 || d < f) {
			f = d
		}
	}
	if f == 0 {
		f = time.Second / 60
	}
	return f
}

// applyRates re-applies changed rates to universes still running on the
// previous configured value. Universes whose scene set their own rate keep
// it.
func applyRates(w *world.World, prev, next config.EngineConfig) {
	for _, u := range w.Universes() {
		if u.UpdateInterval() == prev.TickRate {
			u.SetUpdateInterval(next.TickRate)
		}
		if u.RenderInterval() == prev.RenderRate {
			u.SetRenderInterval(next.RenderRate)
		}
	}
}

// loggerConfig maps the logging section onto a zap config. An unknown
// level falls back to info and is reported through ok.
func loggerConfig(cfg config.LoggingConfig) (zapCfg zap.Config, ok bool) {
	level := zapcore.InfoLevel
	ok = level.UnmarshalText([]byte(cfg.Level)) == nil
	if !ok {
		level = zapcore.InfoLevel
	}

	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapCfg.InitialFields = map[string]any{"app": "multiverse"}
	default:
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		// frames are milliseconds apart
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg, ok
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zapCfg, ok := loggerConfig(cfg)
	log, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Warn("unknown log level, using info", zap.String("level", cfg.Level))
	}
	return log, nil
}
