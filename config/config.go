// Package config loads campaignmesh configuration from defaults, an optional
// YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/campaignmesh/engine"
	"github.com/hupe1980/campaignmesh/internal/tracing"
)

// EnvPrefix prefixes every environment override, e.g. CAMPAIGNMESH_SERVER_ADDR.
const EnvPrefix = "CAMPAIGNMESH"

// Config holds all configuration for campaignmesh.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Model   ModelConfig    `mapstructure:"model"`
	Engine  EngineConfig   `mapstructure:"engine"`
	Session SessionConfig  `mapstructure:"session"`
	Tools   ToolsConfig    `mapstructure:"tools"`
	Log     LogConfig      `mapstructure:"log"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr         string   `mapstructure:"addr"`
	BasePath     string   `mapstructure:"base_path"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// ModelConfig selects the model provider.
type ModelConfig struct {
	// Provider is gemini, openai, anthropic or scripted.
	Provider    string  `mapstructure:"provider"`
	Name        string  `mapstructure:"name"`
	Temperature float64 `mapstructure:"temperature"`
	// ReviewName and TitleName override Name for the reviewer and the title
	// generator. Empty uses Name.
	ReviewName string `mapstructure:"review_name"`
	TitleName  string `mapstructure:"title_name"`

	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`

	Breaker BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Interval    time.Duration `mapstructure:"interval"`
}

// EngineConfig holds orchestration limits.
type EngineConfig struct {
	MaxSteps           int    `mapstructure:"max_steps"`
	MaxHistory         int    `mapstructure:"max_history"`
	ResumePolicy       string `mapstructure:"resume_policy"`
	ConfirmSideEffects bool   `mapstructure:"confirm_side_effects"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	// Backend is file, sqlite or memory.
	Backend      string        `mapstructure:"backend"`
	Dir          string        `mapstructure:"dir"`
	SQLitePath   string        `mapstructure:"sqlite_path"`
	QueueSize    int           `mapstructure:"queue_size"`
	TitleTimeout time.Duration `mapstructure:"title_timeout"`
}

// ToolsConfig holds credentials and HTTP limits for the external tools.
type ToolsConfig struct {
	NewsAPIKey         string        `mapstructure:"news_api_key"`
	BloggerAccessToken string        `mapstructure:"blogger_access_token"`
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`
	RatePerSecond      float64       `mapstructure:"rate_per_second"`
	Burst              int           `mapstructure:"burst"`
	UserAgent          string        `mapstructure:"user_agent"`
	ArticleMaxChars    int           `mapstructure:"article_max_chars"`
	TranscriptLanguage string        `mapstructure:"transcript_language"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

var (
	providers = []string{"gemini", "openai", "anthropic", "scripted"}
	backends  = []string{"file", "sqlite", "memory"}
	formats   = []string{"text", "json"}
)

// envAliases maps config keys to the conventional variable names accepted
// in addition to the prefixed ones.
var envAliases = map[string]string{
	"model.gemini_api_key":       "GEMINI_API_KEY",
	"model.openai_api_key":       "OPENAI_API_KEY",
	"model.anthropic_api_key":    "ANTHROPIC_API_KEY",
	"tools.news_api_key":         "NEWS_API_KEY",
	"tools.blogger_access_token": "BLOGGER_ACCESS_TOKEN",
}

// Load reads configuration. An explicit path must exist; otherwise
// campaignmesh.yaml is looked up in the working directory and the user
// config directory, and a missing file is not an error.
// Precedence (highest to lowest): environment, file, defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("campaignmesh")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := userConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, alias := range envAliases {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, alias); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.base_path", "/api")
	v.SetDefault("server.allow_origins", []string{})

	v.SetDefault("model.provider", "gemini")
	v.SetDefault("model.name", "")
	v.SetDefault("model.temperature", 1.0)
	v.SetDefault("model.review_name", "")
	v.SetDefault("model.title_name", "")
	v.SetDefault("model.gemini_api_key", "")
	v.SetDefault("model.openai_api_key", "")
	v.SetDefault("model.anthropic_api_key", "")
	v.SetDefault("model.breaker.enabled", true)
	v.SetDefault("model.breaker.max_failures", 5)
	v.SetDefault("model.breaker.timeout", 60*time.Second)
	v.SetDefault("model.breaker.interval", 60*time.Second)

	v.SetDefault("engine.max_steps", engine.DefaultMaxSteps)
	v.SetDefault("engine.max_history", engine.DefaultMaxHistory)
	v.SetDefault("engine.resume_policy", string(engine.DefaultResumePolicy))
	v.SetDefault("engine.confirm_side_effects", true)

	v.SetDefault("session.backend", "file")
	v.SetDefault("session.dir", filepath.Join("data", "contexts"))
	v.SetDefault("session.sqlite_path", filepath.Join("data", "campaignmesh.db"))
	v.SetDefault("session.queue_size", 64)
	v.SetDefault("session.title_timeout", 30*time.Second)

	v.SetDefault("tools.news_api_key", "")
	v.SetDefault("tools.blogger_access_token", "")
	v.SetDefault("tools.http_timeout", 30*time.Second)
	v.SetDefault("tools.rate_per_second", 5.0)
	v.SetDefault("tools.burst", 5)
	v.SetDefault("tools.user_agent", "campaignmesh/1.0")
	v.SetDefault("tools.article_max_chars", 20000)
	v.SetDefault("tools.transcript_language", "en")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "noop")
}

// Validate checks enumerated values and limits.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(providers, c.Model.Provider) {
		errs = append(errs, fmt.Errorf("model.provider must be one of %s, got %q", strings.Join(providers, ", "), c.Model.Provider))
	}

	if !slices.Contains(backends, c.Session.Backend) {
		errs = append(errs, fmt.Errorf("session.backend must be one of %s, got %q", strings.Join(backends, ", "), c.Session.Backend))
	}

	if !slices.Contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of %s, got %q", strings.Join(formats, ", "), c.Log.Format))
	}

	if _, err := engine.ParseResumePolicy(c.Engine.ResumePolicy); err != nil {
		errs = append(errs, fmt.Errorf("engine.resume_policy: %w", err))
	}

	if c.Engine.MaxSteps < 1 {
		errs = append(errs, errors.New("engine.max_steps must be positive"))
	}

	if c.Tools.RatePerSecond < 0 {
		errs = append(errs, errors.New("tools.rate_per_second must not be negative"))
	}

	return errors.Join(errs...)
}

// ReviewModelName returns the model name used by the reviewer.
func (m ModelConfig) ReviewModelName() string {
	if m.ReviewName != "" {
		return m.ReviewName
	}
	return m.Name
}

// TitleModelName returns the model name used by the title generator.
func (m ModelConfig) TitleModelName() string {
	if m.TitleName != "" {
		return m.TitleName
	}
	return m.Name
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "campaignmesh")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "campaignmesh")
}
