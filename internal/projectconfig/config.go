// Package projectconfig provides the ProjectConfig struct and loader for
// .soapscribe.yaml files, layered with .env and process environment overrides.
package projectconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project-level configuration file looked up by Load.
const ConfigFileName = ".soapscribe.yaml"

// Default values for project configuration. These are the single source of
// truth; New() references them and no other code should duplicate them.
const (
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 8000
	DefaultAudioDir  = "audio"
	DefaultWorkers   = 4
	DefaultQueueSize = 64

	DefaultTranscriptionBaseURL = "https://api.assemblyai.com/v2"
	DefaultTranscriptionTimeout = 600.0
	DefaultPollInterval         = 5.0
	DefaultHTTPClientTimeout    = 900.0

	DefaultGenerationProvider = ProviderGemini
	DefaultGeminiModel        = "gemini-1.5-flash"
	DefaultGenerationTimeout  = 300.0

	DefaultRetryAttempts     = 3
	DefaultRetryInitialDelay = 4.0
	DefaultRetryMaxDelay     = 10.0

	DefaultSweepInterval = 60.0
)

// Generation providers understood by the note generator.
const (
	ProviderGemini  = "gemini"
	ProviderCopilot = "copilot"
)

// Environment variables read on top of the file configuration.
const (
	EnvAssemblyAIKey        = "ASSEMBLYAI_API_KEY"
	EnvGoogleAPIKey         = "GOOGLE_API_KEY"
	EnvTranscriptionTimeout = "TRANSCRIPTION_TIMEOUT"
	EnvGenerationTimeout    = "SOAP_GENERATION_TIMEOUT"
	EnvHTTPClientTimeout    = "HTTP_CLIENT_TIMEOUT"
	EnvGenerationProvider   = "SOAPSCRIBE_GENERATION_PROVIDER"
	EnvGenerationModel      = "SOAPSCRIBE_GENERATION_MODEL"
	EnvPort                 = "SOAPSCRIBE_PORT"
	EnvAudioDir             = "SOAPSCRIBE_AUDIO_DIR"
)

// ServerConfig holds HTTP server and job execution settings.
type ServerConfig struct {
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	AudioDir  string `yaml:"audio_dir,omitempty"`
	Workers   int    `yaml:"workers,omitempty"`
	QueueSize int    `yaml:"queue_size,omitempty"`

	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// TranscriptionConfig holds transcription provider settings. Durations are seconds.
type TranscriptionConfig struct {
	APIKey       string  `yaml:"api_key,omitempty"`
	BaseURL      string  `yaml:"base_url,omitempty"`
	Timeout      float64 `yaml:"timeout,omitempty"`
	PollInterval float64 `yaml:"poll_interval,omitempty"`
	HTTPTimeout  float64 `yaml:"http_timeout,omitempty"`
}

// GenerationConfig holds language model settings. Timeout is in seconds.
type GenerationConfig struct {
	Provider string  `yaml:"provider,omitempty"`
	APIKey   string  `yaml:"api_key,omitempty"`
	Model    string  `yaml:"model,omitempty"`
	Timeout  float64 `yaml:"timeout,omitempty"`
}

// RetryConfig holds the backoff shared by both provider clients.
type RetryConfig struct {
	MaxAttempts  int     `yaml:"max_attempts,omitempty"`
	InitialDelay float64 `yaml:"initial_delay,omitempty"`
	MaxDelay     float64 `yaml:"max_delay,omitempty"`
}

// JobsConfig controls how long finished jobs are kept in memory.
// A zero Retention keeps them for the life of the process.
type JobsConfig struct {
	Retention     float64 `yaml:"retention,omitempty"`
	SweepInterval float64 `yaml:"sweep_interval,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .soapscribe.yaml.
type ProjectConfig struct {
	Server        ServerConfig        `yaml:"server,omitempty"`
	Transcription TranscriptionConfig `yaml:"transcription,omitempty"`
	Generation    GenerationConfig    `yaml:"generation,omitempty"`
	Retry         RetryConfig         `yaml:"retry,omitempty"`
	Jobs          JobsConfig          `yaml:"jobs,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Server: ServerConfig{
			Host:      DefaultHost,
			Port:      DefaultPort,
			AudioDir:  DefaultAudioDir,
			Workers:   DefaultWorkers,
			QueueSize: DefaultQueueSize,
		},
		Transcription: TranscriptionConfig{
			BaseURL:      DefaultTranscriptionBaseURL,
			Timeout:      DefaultTranscriptionTimeout,
			PollInterval: DefaultPollInterval,
			HTTPTimeout:  DefaultHTTPClientTimeout,
		},
		Generation: GenerationConfig{
			Provider: DefaultGenerationProvider,
			Model:    DefaultGeminiModel,
			Timeout:  DefaultGenerationTimeout,
		},
		Retry: RetryConfig{
			MaxAttempts:  DefaultRetryAttempts,
			InitialDelay: DefaultRetryInitialDelay,
			MaxDelay:     DefaultRetryMaxDelay,
		},
		Jobs: JobsConfig{
			SweepInterval: DefaultSweepInterval,
		},
	}
}

// Load finds .soapscribe.yaml by walking up from startDir (max 10 levels),
// unmarshals it, fills in missing fields with defaults, and finally applies
// environment overrides. If no config file is found, defaults plus
// environment are returned with a nil error.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	switch {
	case err == nil:
		var fileCfg ProjectConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
		}
		mergeConfig(cfg, &fileCfg)
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("loading %s: %w", ConfigFileName, err)
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// findConfigFile walks up from dir looking for .soapscribe.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ConfigFileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Server
	if src.Server.Host != "" {
		dst.Server.Host = src.Server.Host
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.AudioDir != "" {
		dst.Server.AudioDir = src.Server.AudioDir
	}
	if src.Server.Workers != 0 {
		dst.Server.Workers = src.Server.Workers
	}
	if src.Server.QueueSize != 0 {
		dst.Server.QueueSize = src.Server.QueueSize
	}
	if len(src.Server.AllowedOrigins) > 0 {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}

	// Transcription
	if src.Transcription.APIKey != "" {
		dst.Transcription.APIKey = src.Transcription.APIKey
	}
	if src.Transcription.BaseURL != "" {
		dst.Transcription.BaseURL = src.Transcription.BaseURL
	}
	if src.Transcription.Timeout != 0 {
		dst.Transcription.Timeout = src.Transcription.Timeout
	}
	if src.Transcription.PollInterval != 0 {
		dst.Transcription.PollInterval = src.Transcription.PollInterval
	}
	if src.Transcription.HTTPTimeout != 0 {
		dst.Transcription.HTTPTimeout = src.Transcription.HTTPTimeout
	}

	// Generation
	if src.Generation.Provider != "" {
		dst.Generation.Provider = src.Generation.Provider
	}
	if src.Generation.APIKey != "" {
		dst.Generation.APIKey = src.Generation.APIKey
	}
	if src.Generation.Model != "" {
		dst.Generation.Model = src.Generation.Model
	}
	if src.Generation.Timeout != 0 {
		dst.Generation.Timeout = src.Generation.Timeout
	}

	// Retry
	if src.Retry.MaxAttempts != 0 {
		dst.Retry.MaxAttempts = src.Retry.MaxAttempts
	}
	if src.Retry.InitialDelay != 0 {
		dst.Retry.InitialDelay = src.Retry.InitialDelay
	}
	if src.Retry.MaxDelay != 0 {
		dst.Retry.MaxDelay = src.Retry.MaxDelay
	}

	// Jobs
	if src.Jobs.Retention != 0 {
		dst.Jobs.Retention = src.Jobs.Retention
	}
	if src.Jobs.SweepInterval != 0 {
		dst.Jobs.SweepInterval = src.Jobs.SweepInterval
	}
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *ProjectConfig, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvAssemblyAIKey)); v != "" {
		cfg.Transcription.APIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvGoogleAPIKey)); v != "" {
		cfg.Generation.APIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvGenerationProvider)); v != "" {
		cfg.Generation.Provider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvGenerationModel)); v != "" {
		cfg.Generation.Model = v
	}
	if v := strings.TrimSpace(getenv(EnvAudioDir)); v != "" {
		cfg.Server.AudioDir = v
	}
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Server.Port = port
	}

	for _, f := range []struct {
		key string
		dst *float64
	}{
		{EnvTranscriptionTimeout, &cfg.Transcription.Timeout},
		{EnvGenerationTimeout, &cfg.Generation.Timeout},
		{EnvHTTPClientTimeout, &cfg.Transcription.HTTPTimeout},
	} {
		v := strings.TrimSpace(getenv(f.key))
		if v == "" {
			continue
		}
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		if secs <= 0 {
			return fmt.Errorf("%s must be positive, got %s", f.key, v)
		}
		*f.dst = secs
	}
	return nil
}

// Validate reports settings that would make the service unusable.
func (c *ProjectConfig) Validate() error {
	var errs []error
	if c.Transcription.APIKey == "" {
		errs = append(errs, fmt.Errorf("transcription API key is not configured (set %s)", EnvAssemblyAIKey))
	}
	switch c.Generation.Provider {
	case ProviderGemini:
		if c.Generation.APIKey == "" {
			errs = append(errs, fmt.Errorf("generation API key is not configured (set %s)", EnvGoogleAPIKey))
		}
	case ProviderCopilot:
	default:
		errs = append(errs, fmt.Errorf("unknown generation provider %q", c.Generation.Provider))
	}
	if c.Server.Workers < 1 {
		errs = append(errs, fmt.Errorf("server.workers must be at least 1"))
	}
	return errors.Join(errs...)
}

// TranscriptionTimeout bounds the whole acquisition step.
func (c *ProjectConfig) TranscriptionTimeout() time.Duration {
	return seconds(c.Transcription.Timeout)
}

// GenerationTimeout bounds the whole note generation step.
func (c *ProjectConfig) GenerationTimeout() time.Duration {
	return seconds(c.Generation.Timeout)
}

// HTTPClientTimeout bounds each outbound HTTP request.
func (c *ProjectConfig) HTTPClientTimeout() time.Duration {
	return seconds(c.Transcription.HTTPTimeout)
}

// PollInterval is the wait between transcription status checks.
func (c *ProjectConfig) PollInterval() time.Duration {
	return seconds(c.Transcription.PollInterval)
}

// RetryInitialDelay is the first backoff wait.
func (c *ProjectConfig) RetryInitialDelay() time.Duration {
	return seconds(c.Retry.InitialDelay)
}

// RetryMaxDelay caps each backoff wait.
func (c *ProjectConfig) RetryMaxDelay() time.Duration {
	return seconds(c.Retry.MaxDelay)
}

// Retention is how long terminal jobs are kept; zero means forever.
func (c *ProjectConfig) Retention() time.Duration {
	return seconds(c.Jobs.Retention)
}

// SweepInterval is how often expired jobs are evicted.
func (c *ProjectConfig) SweepInterval() time.Duration {
	return seconds(c.Jobs.SweepInterval)
}

// Addr is the host:port the HTTP server binds to.
func (c *ProjectConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
