package actor

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	amperrors "github.com/amp-labs/eventual/errors"
	"github.com/amp-labs/eventual/envutil"
	"gopkg.in/yaml.v3"
)

const defaultShutdownGrace = 10 * time.Second

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("actor: invalid config")

// Config tunes a Runtime.
type Config struct {
	// Name labels logs and metrics of the runtime.
	Name string `yaml:"name"`

	// Workers is the size of the worker pool when Start is given no count.
	Workers int `yaml:"workers"`

	// MaxBatchesPerTurn caps the batches an actor processes before it gives its
	// worker back. Zero drains the mailbox completely.
	MaxBatchesPerTurn int `yaml:"maxBatchesPerTurn"`

	// ShutdownGrace is how long the shutdown hook waits for in-flight batches.
	ShutdownGrace time.Duration `yaml:"shutdownGrace"`

	// TrackTimestamps records when each message was sent, for queue-time
	// metrics and tracing.
	TrackTimestamps bool `yaml:"trackTimestamps"`

	// Trace logs every send, batch, and settlement at debug level.
	Trace bool `yaml:"trace"`
}

// DefaultConfig returns a config with one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Name:          "actors",
		Workers:       runtime.GOMAXPROCS(0),
		ShutdownGrace: defaultShutdownGrace,
	}
}

// Validate rejects configs the runtime can't work with.
func (c Config) Validate() error {
	errs := &amperrors.Collection{}

	if c.Name == "" {
		errs.Add(fmt.Errorf("%w: name is empty", ErrInvalidConfig))
	}

	if c.Workers < 0 {
		errs.Add(fmt.Errorf("%w: workers is %d", ErrInvalidConfig, c.Workers))
	}

	if c.MaxBatchesPerTurn < 0 {
		errs.Add(fmt.Errorf("%w: maxBatchesPerTurn is %d", ErrInvalidConfig, c.MaxBatchesPerTurn))
	}

	if c.ShutdownGrace < 0 {
		errs.Add(fmt.Errorf("%w: shutdownGrace is %s", ErrInvalidConfig, c.ShutdownGrace))
	}

	return errs.GetError()
}

// WithEnv overlays the ACTOR_* environment variables on c.
func (c Config) WithEnv() (Config, error) {
	errs := &amperrors.Collection{}

	overlay(errs, envutil.String("ACTOR_NAME"), &c.Name)
	overlay(errs, envutil.Int("ACTOR_WORKERS"), &c.Workers)
	overlay(errs, envutil.Int("ACTOR_MAX_BATCHES_PER_TURN"), &c.MaxBatchesPerTurn)
	overlay(errs, envutil.Duration("ACTOR_SHUTDOWN_GRACE"), &c.ShutdownGrace)
	overlay(errs, envutil.Bool("ACTOR_TRACK_TIMESTAMPS"), &c.TrackTimestamps)
	overlay(errs, envutil.Bool("ACTOR_TRACE"), &c.Trace)

	if errs.HasError() {
		return c, errs.GetError()
	}

	return c, c.Validate()
}

func overlay[T any](errs *amperrors.Collection, rdr envutil.Reader[T], dst *T) {
	if rdr.HasError() {
		_, err := rdr.Value()
		errs.Add(err)

		return
	}

	rdr.DoWithValue(func(v T) {
		*dst = v
	})
}

// LoadConfig returns DefaultConfig with environment overrides applied.
func LoadConfig() (Config, error) {
	return DefaultConfig().WithEnv()
}

// LoadConfigFile reads a YAML config, fills unset fields from DefaultConfig,
// and applies environment overrides on top.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return Config{}, fmt.Errorf("reading actor config: %w", err)
	}

	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing actor config %s: %w", path, err)
	}

	return cfg.WithEnv()
}
