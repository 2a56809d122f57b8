package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maastricht-university/asr-eval/evaluation"
	"github.com/spf13/viper"
)

type Service struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// Backend configures one ASR inference service.
type Backend struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Model    string `mapstructure:"model" yaml:"model"`
	Device   string `mapstructure:"device" yaml:"device"`
	Language string `mapstructure:"language" yaml:"language"`
}

type Services struct {
	Preprocess     Service `mapstructure:"preprocess" yaml:"preprocess"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

type Audio struct {
	SampleRate int     `mapstructure:"sample_rate" yaml:"sample_rate"`
	TopDB      float64 `mapstructure:"top_db" yaml:"top_db"`
	Peak       float64 `mapstructure:"peak" yaml:"peak"`
}

type Evaluation struct {
	Workers          int      `mapstructure:"workers" yaml:"workers"`
	Dimensions       []string `mapstructure:"dimensions" yaml:"dimensions"`
	ComposeUnicode   bool     `mapstructure:"compose_unicode" yaml:"compose_unicode"`
	ExpectedSpeakers []string `mapstructure:"expected_speakers" yaml:"expected_speakers"`
}

type Store struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

type Root struct {
	Pipeline struct {
		Name   string `mapstructure:"name" yaml:"name"`
		LogLvl string `mapstructure:"log_level" yaml:"log_level"`
	} `mapstructure:"pipeline" yaml:"pipeline"`
	Audio      Audio              `mapstructure:"audio" yaml:"audio"`
	Services   Services           `mapstructure:"services" yaml:"services"`
	Backends   map[string]Backend `mapstructure:"backends" yaml:"backends"`
	Evaluation Evaluation         `mapstructure:"evaluation" yaml:"evaluation"`
	Store      Store              `mapstructure:"store" yaml:"store"`
	Paths      struct {
		Data    string `mapstructure:"data" yaml:"data"`
		Outputs string `mapstructure:"outputs" yaml:"outputs"`
	} `mapstructure:"paths" yaml:"paths"`
}

// EnvPrefix prefixes every environment override, e.g.
// ASREVAL_BACKENDS_WHISPER_URL or ASREVAL_EVALUATION_WORKERS.
const EnvPrefix = "ASREVAL"

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "asr-eval")
	v.SetDefault("pipeline.log_level", "info")

	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.top_db", 30.0)
	v.SetDefault("audio.peak", 0.95)

	v.SetDefault("services.preprocess.url", "http://localhost:8001")
	v.SetDefault("services.timeout_seconds", 120)

	v.SetDefault("backends", map[string]any{
		"whisper": map[string]any{
			"url":      "http://localhost:8002",
			"model":    "openai/whisper-small",
			"device":   "cpu",
			"language": "turkish",
		},
		"wav2vec2": map[string]any{
			"url":    "http://localhost:8003",
			"model":  "m3hrdadfi/wav2vec2-large-xlsr-turkish",
			"device": "cpu",
		},
	})

	v.SetDefault("evaluation.workers", 0)
	v.SetDefault("evaluation.dimensions", []string{"overall", "speaker", "category"})
	v.SetDefault("evaluation.compose_unicode", false)
	v.SetDefault("evaluation.expected_speakers", []string{})

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", filepath.Join("outputs", "asreval.db"))

	v.SetDefault("paths.data", "Dataset")
	v.SetDefault("paths.outputs", "outputs")
}

// Load reads configuration from path, or from the first file of the
// environment guess list when path is empty. Missing guess files fall back
// to defaults; environment variables override both.
func Load(path string) (*Root, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = guess()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func guess() string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	candidates := []string{
		filepath.Join("config", env, "config.yaml"),
		"config.yaml",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func validate(cfg *Root) error {
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.Peak <= 0 || cfg.Audio.Peak > 1 {
		return errors.New("audio.peak must be in (0, 1]")
	}
	if cfg.Services.TimeoutSeconds <= 0 {
		return errors.New("services.timeout_seconds must be positive")
	}
	if len(cfg.Backends) == 0 {
		return errors.New("backends must not be empty")
	}
	for name, b := range cfg.Backends {
		if b.URL == "" {
			return fmt.Errorf("backends.%s.url must not be empty", name)
		}
	}
	if cfg.Evaluation.Workers < 0 {
		return errors.New("evaluation.workers must be >= 0")
	}
	if _, err := cfg.Evaluation.ParseDimensions(); err != nil {
		return err
	}
	if cfg.Paths.Data == "" {
		return errors.New("paths.data must not be empty")
	}
	if cfg.Store.Enabled && cfg.Store.Path == "" {
		return errors.New("store.path must be set when the store is enabled")
	}
	return nil
}

// Backend returns the named backend configuration.
func (r *Root) Backend(name string) (Backend, error) {
	b, ok := r.Backends[name]
	if !ok {
		return Backend{}, fmt.Errorf("unknown backend %q", name)
	}
	return b, nil
}

// ParseDimensions converts the configured dimension names.
func (e Evaluation) ParseDimensions() ([]evaluation.Dimension, error) {
	dims := make([]evaluation.Dimension, 0, len(e.Dimensions))
	for _, s := range e.Dimensions {
		d, ok := evaluation.ParseDimension(strings.TrimSpace(s))
		if !ok {
			return nil, fmt.Errorf("evaluation.dimensions: unknown dimension %q", s)
		}
		dims = append(dims, d)
	}
	return dims, nil
}

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
