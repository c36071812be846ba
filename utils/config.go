package utils

import (
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultConfigFile is read when no --config flag is given; it may be absent
	DefaultConfigFile = "config.json"

	// MinFrameRate is the shortest pause between generations
	MinFrameRate = time.Millisecond
)

// Config holds the configuration for the game
type Config struct {
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	SpawnRate      float64       `json:"spawn_rate"`
	LoadPath       string        `json:"load"`
	FrameRate      time.Duration `json:"frame_rate"`
	MaxGenerations int           `json:"max_generations"`
	UseParallel    bool          `json:"use_parallel"`
	UseMemoryPool  bool          `json:"use_memory_pool"`
	ShowStats      bool          `json:"show_stats"`
	AliveGlyph     string        `json:"alive_glyph"`
	DeadGlyph      string        `json:"dead_glyph"`
	SavePath       string        `json:"save"`
	DBPath         string        `json:"db"`
	Resume         bool          `json:"resume"`
	SSHAddr        string        `json:"ssh_addr"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Width:          100,
		Height:         35,
		SpawnRate:      0.5,
		FrameRate:      800 * time.Millisecond,
		MaxGenerations: 0, // run until interrupted
		UseParallel:    false,
		UseMemoryPool:  true,
		ShowStats:      false,
		AliveGlyph:     "#",
		DeadGlyph:      " ",
	}
}

// UnmarshalJSON reads frame_rate as a duration string such as "800ms"
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		FrameRate json.RawMessage `json:"frame_rate"`
	}{plain: (*plain)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.FrameRate) == 0 {
		return nil
	}

	var text string
	if err := json.Unmarshal(aux.FrameRate, &text); err != nil {
		return errors.Errorf("[UnmarshalJSON] frame_rate must be a duration string like \"800ms\", got %s", aux.FrameRate)
	}
	d, err := time.ParseDuration(text)
	if err != nil {
		return errors.Wrapf(err, "[UnmarshalJSON] invalid frame_rate %q", text)
	}
	c.FrameRate = d
	return nil
}

// LoadConfig loads configuration from JSON file
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
	}

	if err = json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
	}

	return config, nil
}

// ParseArgs builds the configuration from the JSON config file and the
// command line. Flags always win over values from the file.
func ParseArgs(name string, args []string, output io.Writer) (Config, error) {
	// first pass only locates the config file
	scratch := DefaultConfig()
	fs := newFlagSet(name, io.Discard, &scratch)
	configPath := fs.Lookup("config").Value.String()
	if err := fs.Parse(args); err == nil {
		configPath = fs.Lookup("config").Value.String()
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) || configPath != DefaultConfigFile {
			return DefaultConfig(), err
		}
		config = DefaultConfig()
	}

	fs = newFlagSet(name, output, &config)
	if err = fs.Parse(args); err != nil {
		return config, errors.Wrap(err, "[ParseArgs] invalid arguments")
	}
	if fs.NArg() > 0 {
		return config, errors.Errorf("[ParseArgs] unexpected arguments: %v", fs.Args())
	}
	return config, nil
}

func newFlagSet(name string, output io.Writer, c *Config) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	intVar(fs, &c.Width, "width", "w", "the width of the game world")
	intVar(fs, &c.Height, "height", "h", "the height of the game world")
	floatVar(fs, &c.SpawnRate, "rate", "r", "the rate at which cells spawn in the initial state")
	stringVar(fs, &c.LoadPath, "load", "l", "load a world from a file (overrides width, height and rate)")
	durationVar(fs, &c.FrameRate, "speed", "s", "pause between generations")
	intVar(fs, &c.MaxGenerations, "generations", "g", "stop after this many generations (0 runs forever)")

	configPath := DefaultConfigFile
	stringVar(fs, &configPath, "config", "c", "JSON configuration file")

	fs.BoolVar(&c.UseParallel, "parallel", c.UseParallel, "compute generations with one worker per CPU")
	fs.BoolVar(&c.UseMemoryPool, "pool", c.UseMemoryPool, "recycle boards between generations")
	fs.BoolVar(&c.ShowStats, "stats", c.ShowStats, "print generation stats under the board")
	fs.StringVar(&c.AliveGlyph, "alive", c.AliveGlyph, "glyph drawn for a live cell")
	fs.StringVar(&c.DeadGlyph, "dead", c.DeadGlyph, "glyph drawn for a dead cell")
	fs.StringVar(&c.SavePath, "save", c.SavePath, "write the last board to this file on exit")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "bolt database storing snapshots and the ssh host key")
	fs.BoolVar(&c.Resume, "resume", c.Resume, "start from the snapshot stored in --db")
	fs.StringVar(&c.SSHAddr, "ssh", c.SSHAddr, "serve the board to ssh spectators on this address")
	return fs
}

func intVar(fs *flag.FlagSet, p *int, long, short, usage string) {
	fs.IntVar(p, long, *p, usage)
	fs.IntVar(p, short, *p, "shorthand for --"+long)
}

func floatVar(fs *flag.FlagSet, p *float64, long, short, usage string) {
	fs.Float64Var(p, long, *p, usage)
	fs.Float64Var(p, short, *p, "shorthand for --"+long)
}

func stringVar(fs *flag.FlagSet, p *string, long, short, usage string) {
	fs.StringVar(p, long, *p, usage)
	fs.StringVar(p, short, *p, "shorthand for --"+long)
}

func durationVar(fs *flag.FlagSet, p *time.Duration, long, short, usage string) {
	fs.DurationVar(p, long, *p, usage)
	fs.DurationVar(p, short, *p, "shorthand for --"+long)
}

// Validate rejects settings the game cannot run with. Size and spawn rate
// are only checked when the board is seeded randomly.
func (c Config) Validate() error {
	if c.LoadPath == "" && !c.Resume {
		if c.Width < 1 || c.Height < 1 {
			return errors.Errorf("[Validate] board must be at least 1x1, got %dx%d", c.Width, c.Height)
		}
		if c.SpawnRate < 0 || c.SpawnRate > 1 {
			return errors.Errorf("[Validate] rate must be between 0 and 1, got %v", c.SpawnRate)
		}
	}
	if c.FrameRate < MinFrameRate {
		return errors.Errorf("[Validate] speed must be at least %v, got %v", MinFrameRate, c.FrameRate)
	}
	if c.MaxGenerations < 0 {
		return errors.Errorf("[Validate] generations must not be negative, got %d", c.MaxGenerations)
	}
	if c.AliveGlyph == "" || c.DeadGlyph == "" {
		return errors.New("[Validate] glyphs must not be empty")
	}
	if c.Resume && c.DBPath == "" {
		return errors.New("[Validate] --resume needs --db")
	}
	return nil
}
