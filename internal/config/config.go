package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Grid    GridConfig    `toml:"grid"`
	Logging LoggingConfig `toml:"logging"`
}

type EngineConfig struct {
	TickRate   time.Duration `toml:"tick_rate"`   // fixed update interval, 0 = once per frame
	RenderRate time.Duration `toml:"render_rate"` // minimum time between full render passes
	Workers    int           `toml:"workers"`
	Scene      string        `toml:"scene"`
	Scripts    string        `toml:"scripts"`
	Profile    string        `toml:"profile"` // "", "cpu" or "mem"
}

// GridConfig is the gridspace of universes whose scene entry has none.
type GridConfig struct {
	CellCountX int     `toml:"cell_count_x"`
	CellCountY int     `toml:"cell_count_y"`
	CellSizeX  float64 `toml:"cell_size_x"`
	CellSizeY  float64 `toml:"cell_size_y"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config { return defaults() }

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			TickRate:   time.Second / 60,
			RenderRate: time.Second / 60,
			Workers:    max(1, runtime.NumCPU()-1),
			Scene:      "scenes/demo.yaml",
			Scripts:    "scripts",
		},
		Grid: GridConfig{
			CellCountX: 16,
			CellCountY: 16,
			CellSizeX:  64,
			CellSizeY:  64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Engine.TickRate < 0 {
		errs = append(errs, fmt.Errorf("engine.tick_rate %v is negative", c.Engine.TickRate))
	}
	if c.Engine.RenderRate < 0 {
		errs = append(errs, fmt.Errorf("engine.render_rate %v is negative", c.Engine.RenderRate))
	}
	if c.Engine.Workers < 1 {
		errs = append(errs, fmt.Errorf("engine.workers %d must be at least 1", c.Engine.Workers))
	}
	switch c.Engine.Profile {
	case "", "cpu", "mem":
	default:
		errs = append(errs, fmt.Errorf("engine.profile %q is not cpu or mem", c.Engine.Profile))
	}
	if c.Grid.CellCountX < 1 || c.Grid.CellCountY < 1 {
		errs = append(errs, fmt.Errorf("grid cell counts %dx%d must be positive", c.Grid.CellCountX, c.Grid.CellCountY))
	}
	if !(c.Grid.CellSizeX > 0) || !(c.Grid.CellSizeY > 0) {
		errs = append(errs, fmt.Errorf("grid cell sizes %vx%v must be positive", c.Grid.CellSizeX, c.Grid.CellSizeY))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not json or console", c.Logging.Format))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
