// Package config holds dealflow's runtime configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
)

// Store modes.
const (
	StoreLocal  = "local"
	StoreRemote = "remote"
)

// Config is the root configuration document.
type Config struct {
	DB       DBConfig       `koanf:"db"`
	Store    StoreConfig    `koanf:"store"`
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Events   EventsConfig   `koanf:"events"`
	Pipeline PipelineConfig `koanf:"pipeline"`
}

// DBConfig locates the SQLite database used by the local store.
type DBConfig struct {
	Path string `koanf:"path"`
}

// StoreConfig selects where records live. In remote mode the CLI talks to a
// dealflow server at URL instead of opening the database.
type StoreConfig struct {
	Mode      string        `koanf:"mode"`
	URL       string        `koanf:"url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"` // requests per second, 0 disables
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// EventsConfig enables NATS publishing of pipeline events when NATSURL is set.
type EventsConfig struct {
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// Enabled reports whether an event bus is configured.
func (e EventsConfig) Enabled() bool { return e.NATSURL != "" }

// PipelineConfig optionally replaces the default stage catalog. Stages are
// listed in pipeline order; rank is the list position.
type PipelineConfig struct {
	Stages []StageConfig `koanf:"stages"`
}

type StageConfig struct {
	ID          string `koanf:"id"`
	Name        string `koanf:"name"`
	Probability int    `koanf:"probability"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.DB.Path == "" {
		cfg.DB.Path = "~/.dealflow/dealflow.db"
	}
	if cfg.Store.Mode == "" {
		cfg.Store.Mode = StoreLocal
	}
	if cfg.Store.Timeout == 0 {
		cfg.Store.Timeout = 10 * time.Second
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8642
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "dealflow"
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Mode {
	case StoreLocal:
		if strings.TrimSpace(c.DB.Path) == "" {
			errs = append(errs, errors.New("db.path is required in local mode"))
		}
	case StoreRemote:
		if c.Store.URL == "" {
			errs = append(errs, errors.New("store.url is required in remote mode"))
		} else if u, err := url.Parse(c.Store.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("store.url %q is not an absolute URL", c.Store.URL))
		}
	default:
		errs = append(errs, fmt.Errorf("store.mode must be %q or %q, got %q", StoreLocal, StoreRemote, c.Store.Mode))
	}
	if c.Store.Timeout < 0 {
		errs = append(errs, errors.New("store.timeout must not be negative"))
	}
	if c.Store.RateLimit < 0 {
		errs = append(errs, errors.New("store.rate_limit must not be negative"))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of console, json", c.Log.Format))
	}

	if len(c.Pipeline.Stages) > 0 {
		if _, err := c.StageRegistry(); err != nil {
			errs = append(errs, fmt.Errorf("pipeline.stages: %w", err))
		}
	}

	return errors.Join(errs...)
}

// StageRegistry builds the stage catalog, falling back to the default
// five-stage pipeline when none is configured.
func (c *Config) StageRegistry() (*domain.StageRegistry, error) {
	if len(c.Pipeline.Stages) == 0 {
		return domain.DefaultStageRegistry(), nil
	}
	stages := make([]domain.Stage, len(c.Pipeline.Stages))
	for i, s := range c.Pipeline.Stages {
		stages[i] = domain.Stage{
			ID:                 s.ID,
			Name:               s.Name,
			Rank:               i + 1,
			DefaultProbability: s.Probability,
		}
	}
	return domain.NewStageRegistry(stages)
}
