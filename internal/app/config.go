package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/lessonplan-backend/internal/platform/envutil"
	"github.com/yungbote/lessonplan-backend/internal/platform/openai"
)

// Duration decodes "30s"-style strings or a bare integer of seconds from YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	s := strings.TrimSpace(node.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	var secs int64
	if err := node.Decode(&secs); err == nil {
		d.Duration = time.Duration(secs) * time.Second
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or an integer of seconds: %w", err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.Duration.String(), nil }

type HTTPConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	WriteTimeout      Duration `yaml:"write_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	CORSOrigins       []string `yaml:"cors_origins"`
}

type BreakerConfig struct {
	Enabled          bool     `yaml:"enabled"`
	FailureThreshold float64  `yaml:"failure_threshold"`
	MinRequests      uint32   `yaml:"min_requests"`
	OpenTimeout      Duration `yaml:"open_timeout"`
}

type LLMConfig struct {
	// Provider is "openai" or "mock".
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	MaxRetries int    `yaml:"max_retries"`
	// AttemptTimeout bounds one HTTP attempt to the backend.
	AttemptTimeout Duration `yaml:"attempt_timeout"`
	// CallTimeout bounds one unit including all retries. Zero derives it from
	// AttemptTimeout, MaxRetries and the client's maximum backoff.
	CallTimeout Duration      `yaml:"call_timeout"`
	Temperature *float64      `yaml:"temperature"`
	CacheTTL    Duration      `yaml:"cache_ttl"`
	Breaker     BreakerConfig `yaml:"breaker"`
}

type PrelearningConfig struct {
	MaxSessions int `yaml:"max_sessions"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	// Driver is "none", "postgres" or "sqlite".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type DocumentsConfig struct {
	// Storage is "local", "gcs" or "none".
	Storage   string `yaml:"storage"`
	Dir       string `yaml:"dir"`
	GCSBucket string `yaml:"gcs_bucket"`
	// GCSCredentials is inline service account JSON or a credentials file path.
	GCSCredentials string  `yaml:"gcs_credentials"`
	PreviewScale   float64 `yaml:"preview_scale"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	Env         string            `yaml:"env"`
	ServiceName string            `yaml:"service_name"`
	HTTP        HTTPConfig        `yaml:"http"`
	LLM         LLMConfig         `yaml:"llm"`
	Prelearning PrelearningConfig `yaml:"prelearning"`
	Redis       RedisConfig       `yaml:"redis"`
	Database    DatabaseConfig    `yaml:"database"`
	Documents   DocumentsConfig   `yaml:"documents"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

func defaultConfig() Config {
	return Config{
		Env:         "development",
		ServiceName: "lessonplan-backend",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{10 * time.Second},
			WriteTimeout:      Duration{10 * time.Minute},
			ShutdownTimeout:   Duration{15 * time.Second},
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			MaxRetries:     2,
			AttemptTimeout: Duration{45 * time.Second},
			Breaker: BreakerConfig{
				FailureThreshold: 0.8,
				MinRequests:      5,
				OpenTimeout:      Duration{60 * time.Second},
			},
		},
		Prelearning: PrelearningConfig{MaxSessions: 20},
		Database:    DatabaseConfig{Driver: "none"},
		Documents: DocumentsConfig{
			Storage:      "local",
			Dir:          "./data/documents",
			PreviewScale: 1,
		},
		Tracing: TracingConfig{SampleRatio: 1},
	}
}

// LoadConfig applies defaults, then the YAML file at LESSONPLAN_CONFIG_PATH (or
// ./config/config.yaml when present), then environment overrides.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("LESSONPLAN_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)

	if port := envutil.String("PORT", ""); port != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.HTTP.CORSOrigins)

	cfg.LLM.Provider = envutil.String("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.APIKey = envutil.String("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = envutil.String("OPENAI_MODEL", cfg.LLM.Model)
	cfg.LLM.MaxRetries = envutil.Int("OPENAI_MAX_RETRIES", cfg.LLM.MaxRetries)
	cfg.LLM.AttemptTimeout.Duration = envutil.Duration("LLM_ATTEMPT_TIMEOUT", cfg.LLM.AttemptTimeout.Duration)
	cfg.LLM.CallTimeout.Duration = envutil.Duration("LLM_CALL_TIMEOUT", cfg.LLM.CallTimeout.Duration)
	cfg.LLM.CacheTTL.Duration = envutil.Duration("LLM_CACHE_TTL", cfg.LLM.CacheTTL.Duration)
	cfg.LLM.Breaker.Enabled = envutil.Bool("LLM_BREAKER_ENABLED", cfg.LLM.Breaker.Enabled)

	cfg.Prelearning.MaxSessions = envutil.Int("PRELEARNING_MAX_SESSIONS", cfg.Prelearning.MaxSessions)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)

	cfg.Database.Driver = envutil.String("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envutil.String("DB_DSN", cfg.Database.DSN)

	cfg.Documents.Storage = envutil.String("DOCUMENTS_STORAGE", cfg.Documents.Storage)
	cfg.Documents.Dir = envutil.String("DOCUMENTS_DIR", cfg.Documents.Dir)
	cfg.Documents.GCSBucket = envutil.String("DOCUMENTS_GCS_BUCKET", cfg.Documents.GCSBucket)
	cfg.Documents.GCSCredentials = envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON",
		envutil.String("GOOGLE_APPLICATION_CREDENTIALS", cfg.Documents.GCSCredentials))

	cfg.Tracing.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
}

// retryBudget is the longest a unit can spend inside the openai client: every
// attempt timing out plus the largest backoff between attempts.
func retryBudget(attempt time.Duration, retries int) time.Duration {
	if retries < 0 {
		retries = 0
	}
	return time.Duration(retries+1)*attempt + time.Duration(retries)*openai.DefaultMaxBackoff
}

func (c *Config) normalize() error {
	c.Env = strings.TrimSpace(c.Env)
	if c.Env == "" {
		c.Env = "development"
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = ":8080"
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch c.LLM.Provider {
	case "openai":
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return errors.New("llm.api_key (OPENAI_API_KEY) is required for the openai provider")
		}
	case "mock":
	default:
		return fmt.Errorf("invalid llm.provider=%q", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("invalid llm.max_retries=%d", c.LLM.MaxRetries)
	}
	if c.LLM.AttemptTimeout.Duration <= 0 {
		c.LLM.AttemptTimeout.Duration = openai.DefaultAttemptTimeout
	}
	if c.LLM.CallTimeout.Duration <= 0 {
		c.LLM.CallTimeout.Duration = retryBudget(c.LLM.AttemptTimeout.Duration, c.LLM.MaxRetries)
	}
	if c.LLM.CallTimeout.Duration < c.LLM.AttemptTimeout.Duration {
		return fmt.Errorf("llm.call_timeout=%s must be at least llm.attempt_timeout=%s", c.LLM.CallTimeout.Duration, c.LLM.AttemptTimeout.Duration)
	}
	if c.LLM.Breaker.FailureThreshold <= 0 || c.LLM.Breaker.FailureThreshold > 1 {
		return fmt.Errorf("invalid llm.breaker.failure_threshold=%v", c.LLM.Breaker.FailureThreshold)
	}
	if c.Prelearning.MaxSessions <= 0 {
		c.Prelearning.MaxSessions = 20
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "", "none":
		c.Database.Driver = "none"
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid database.driver=%q", c.Database.Driver)
	}

	c.Documents.Storage = strings.ToLower(strings.TrimSpace(c.Documents.Storage))
	switch c.Documents.Storage {
	case "", "none":
		c.Documents.Storage = "none"
	case "local":
		if strings.TrimSpace(c.Documents.Dir) == "" {
			return errors.New("documents.dir is required for local storage")
		}
	case "gcs":
		if strings.TrimSpace(c.Documents.GCSBucket) == "" {
			return errors.New("documents.gcs_bucket is required for gcs storage")
		}
	default:
		return fmt.Errorf("invalid documents.storage=%q", c.Documents.Storage)
	}
	if c.Documents.PreviewScale <= 0 {
		c.Documents.PreviewScale = 1
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	return nil
}
