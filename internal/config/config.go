package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/cleaning"
	"github.com/KaramelBytes/tidyqa-cli/internal/llm"
	"github.com/KaramelBytes/tidyqa-cli/internal/preprocess"
)

// DirName is the per-user configuration directory under $HOME.
const DirName = ".tidyqa"

// QA configures question answering and the optional LLM intent parser.
type QA struct {
	LLMEnabled  bool    `mapstructure:"llm_enabled" yaml:"llm_enabled"`
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	OllamaHost  string  `mapstructure:"ollama_host" yaml:"ollama_host"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string `mapstructure:"addr" yaml:"addr"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec" yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec" yaml:"write_timeout_sec"`
}

// Query configures the SQL console.
type Query struct {
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`
}

// Log configures the process logger.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Global configuration structure.
type Global struct {
	Cleaning      cleaning.Config   `mapstructure:"cleaning" yaml:"cleaning"`
	Preprocessing preprocess.Config `mapstructure:"preprocessing" yaml:"preprocessing"`
	QA            QA                `mapstructure:"qa" yaml:"qa"`

	// HTTP/Retry configuration for LLM runtimes
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	Server Server `mapstructure:"server" yaml:"server"`
	Query  Query  `mapstructure:"query" yaml:"query"`
	Log    Log    `mapstructure:"log" yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Global {
	return &Global{
		Cleaning:      cleaning.DefaultConfig(),
		Preprocessing: preprocess.DefaultConfig(),
		QA: QA{
			Provider:    llm.ProviderOpenRouter,
			Model:       "openai/gpt-4o-mini",
			OllamaHost:  "http://127.0.0.1:11434",
			MaxTokens:   256,
			Temperature: 0,
		},
		HTTPTimeoutSec:   60,
		RetryMaxAttempts: 3,
		RetryBaseDelayMs: 500,
		RetryMaxDelayMs:  4000,
		Server: Server{
			Addr:            "127.0.0.1:8080",
			MaxUploadMB:     50,
			ReadTimeoutSec:  30,
			WriteTimeoutSec: 60,
		},
		Query: Query{MaxRows: 10000},
		Log:   Log{Level: "info", Format: "text"},
	}
}

// Path resolves the config file location. An empty cfgFile means
// ~/.tidyqa/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tidyqa/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults, then validates it.
// Precedence: env > config file > defaults. A .env file in the working
// directory is read first when present.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TIDYQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperr.Wrap(apperr.KindConfig, err, "read config %s", cfgFile)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, DirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, apperr.Wrap(apperr.KindConfig, err, "read config")
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, apperr.Wrap(apperr.KindConfig, err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// setDefaults registers every key so that env overrides reach nested fields.
func setDefaults(v *viper.Viper, d *Global) {
	v.SetDefault("cleaning.drop_duplicates", d.Cleaning.DropDuplicates)
	v.SetDefault("cleaning.strip_whitespace", d.Cleaning.StripWhitespace)
	v.SetDefault("cleaning.standardize_colnames", d.Cleaning.StandardizeNames)
	v.SetDefault("cleaning.datetime_infer", d.Cleaning.InferDatetimes)
	v.SetDefault("cleaning.missing.strategy_numeric", string(d.Cleaning.Missing.Numeric))
	v.SetDefault("cleaning.missing.strategy_categorical", string(d.Cleaning.Missing.Categorical))
	v.SetDefault("cleaning.missing.fill_constant", d.Cleaning.Missing.FillConstant)

	v.SetDefault("preprocessing.encode_categoricals", d.Preprocessing.Encode)
	v.SetDefault("preprocessing.encoder", string(d.Preprocessing.Encoder))
	v.SetDefault("preprocessing.target", d.Preprocessing.Target)
	v.SetDefault("preprocessing.scale_numeric", d.Preprocessing.Scale)
	v.SetDefault("preprocessing.scaler", string(d.Preprocessing.Scaler))

	v.SetDefault("qa.llm_enabled", d.QA.LLMEnabled)
	v.SetDefault("qa.provider", d.QA.Provider)
	v.SetDefault("qa.model", d.QA.Model)
	v.SetDefault("qa.api_key", d.QA.APIKey)
	v.SetDefault("qa.ollama_host", d.QA.OllamaHost)
	v.SetDefault("qa.max_tokens", d.QA.MaxTokens)
	v.SetDefault("qa.temperature", d.QA.Temperature)

	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", d.HTTPTimeoutSec)
	v.SetDefault("retry_max_attempts", d.RetryMaxAttempts)
	v.SetDefault("retry_base_delay_ms", d.RetryBaseDelayMs)
	v.SetDefault("retry_max_delay_ms", d.RetryMaxDelayMs)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("server.read_timeout_sec", d.Server.ReadTimeoutSec)
	v.SetDefault("server.write_timeout_sec", d.Server.WriteTimeoutSec)

	v.SetDefault("query.max_rows", d.Query.MaxRows)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks every enumerated setting.
func (c *Global) Validate() error {
	if err := c.Cleaning.Validate(); err != nil {
		return err
	}
	if err := c.Preprocessing.Validate(); err != nil {
		return err
	}
	switch c.QA.Provider {
	case llm.ProviderOpenRouter, llm.ProviderOllama:
	default:
		return apperr.Config("invalid qa.provider %q (use openrouter or ollama)", c.QA.Provider)
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return apperr.Config("invalid log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return apperr.Config("invalid log.format %q (use text or json)", c.Log.Format)
	}
	if c.Query.MaxRows < 0 {
		return apperr.Config("query.max_rows must be >= 0")
	}
	if c.Server.MaxUploadMB <= 0 {
		return apperr.Config("server.max_upload_mb must be > 0")
	}
	return nil
}

// RuntimeConfig maps the QA and retry settings onto an LLM runtime config.
func (c *Global) RuntimeConfig() llm.RuntimeConfig {
	return llm.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.QA.APIKey,
		Host:        c.QA.OllamaHost,
	}
}
