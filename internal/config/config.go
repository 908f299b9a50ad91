// Package config holds the tool configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"cursorflow/internal/overlay"
	"cursorflow/internal/pagematch"
)

// Flow is the controller's timing and retry budget.
type Flow struct {
	// StepDelay is the pause before locating a step's element, giving
	// the page time to render.
	StepDelay time.Duration `yaml:"stepDelay"`
	// RetryDelay is the wait before the single element-location retry.
	RetryDelay time.Duration `yaml:"retryDelay"`
	// SkipDelay is the pause after skipping an unresolvable step.
	SkipDelay time.Duration `yaml:"skipDelay"`
	// ContentWaitMax bounds the readiness poll on pages that hydrate
	// asynchronously.
	ContentWaitMax time.Duration `yaml:"contentWaitMax"`
	// ContentPaths are path fragments of pages known to hydrate late.
	ContentPaths []string `yaml:"contentPaths"`
	// ContentProbe is the selector whose absence marks an unhydrated
	// page.
	ContentProbe string `yaml:"contentProbe"`
}

// UnmarshalYAML accepts Go duration strings ("500ms", "2s") for the
// delay fields. Keys absent from the document keep their prior values.
func (f *Flow) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		StepDelay      string   `yaml:"stepDelay"`
		RetryDelay     string   `yaml:"retryDelay"`
		SkipDelay      string   `yaml:"skipDelay"`
		ContentWaitMax string   `yaml:"contentWaitMax"`
		ContentPaths   []string `yaml:"contentPaths"`
		ContentProbe   string   `yaml:"contentProbe"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	set := func(dst *time.Duration, s string) error {
		if s == "" {
			return nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*dst = d
		return nil
	}
	if err := set(&f.StepDelay, raw.StepDelay); err != nil {
		return err
	}
	if err := set(&f.RetryDelay, raw.RetryDelay); err != nil {
		return err
	}
	if err := set(&f.SkipDelay, raw.SkipDelay); err != nil {
		return err
	}
	if err := set(&f.ContentWaitMax, raw.ContentWaitMax); err != nil {
		return err
	}
	if raw.ContentPaths != nil {
		f.ContentPaths = raw.ContentPaths
	}
	if raw.ContentProbe != "" {
		f.ContentProbe = raw.ContentProbe
	}
	return nil
}

// Config is the file structure.
type Config struct {
	Version string `yaml:"version"`

	DevToolsURL string `yaml:"devToolsURL"`
	RecordingBaseURL string `yaml:"recordingBaseURL"`

	Sqlite struct {
		Dsn string `yaml:"dsn"`
	} `yaml:"sqlite"`

	Log struct {
		Level  string   `yaml:"level"`
		Writer []string `yaml:"writer"`
		File   string   `yaml:"file"`
	} `yaml:"log"`

	Overlay overlay.Config `yaml:"overlay"`

	Matcher struct {
		Weights    pagematch.Weights    `yaml:"weights"`
		Thresholds pagematch.Thresholds `yaml:"thresholds"`
	} `yaml:"matcher"`

	Flow Flow `yaml:"flow"`
}

// New creates the default configuration.
func New() *Config {
	cfg := &Config{Version: "1.0.0"}
	cfg.DevToolsURL = "http://127.0.0.1:9222"
	cfg.RecordingBaseURL = "http://127.0.0.1:3000/cursor-recording"
	cfg.Sqlite.Dsn = "cursorflow.sqlite3"
	cfg.Log.Level = "info"
	cfg.Log.Writer = []string{"console"}
	cfg.Log.File = "cursorflow.log"
	cfg.Overlay = overlay.DefaultConfig()
	cfg.Matcher.Weights = pagematch.DefaultWeights()
	cfg.Matcher.Thresholds = pagematch.DefaultThresholds()
	cfg.Flow = Flow{
		StepDelay:      time.Second,
		RetryDelay:     2 * time.Second,
		SkipDelay:      500 * time.Millisecond,
		ContentWaitMax: 10 * time.Second,
		ContentPaths:   []string{"/writing"},
		ContentProbe:   "h2 a, main a",
	}
	return cfg
}

// Load reads a yaml config file over the defaults. A missing path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := New()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
