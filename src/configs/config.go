package configs

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort          = 5000
	DefaultVisionTokens  = 500
	DefaultRoutineTokens = 1000

	// ProductionEnv is the APP_ENV value that skips loading the local .env file.
	ProductionEnv = "production"
)

var (
	validLogFormats = []string{"text", "json"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
)

// Config is the top-level configuration.
type Config struct {
	Server struct {
		IP              string        `yaml:"ip"`
		Port            int           `yaml:"port"`
		UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	} `yaml:"server"`

	Log struct {
		LogFormat string `yaml:"log_format"`
		LogLevel  string `yaml:"log_level"`
		LogDir    string `yaml:"log_dir"`
		LogFile   string `yaml:"log_file"`
	} `yaml:"log"`

	SelectedModule map[string]string `yaml:"selected_module"`

	LLM   map[string]LLMConfig `yaml:"LLM"`
	VLLLM map[string]LLMConfig `yaml:"VLLLM"`
}

// LLMConfig describes one upstream model endpoint. The same shape is used
// for the text (LLM) and the vision (VLLLM) sections.
type LLMConfig struct {
	Type        string                 `yaml:"type"`
	ModelName   string                 `yaml:"model_name"`
	BaseURL     string                 `yaml:"url"`
	APIKey      string                 `yaml:"api_key"`
	Temperature float64                `yaml:"temperature"`
	MaxTokens   int                    `yaml:"max_tokens"`
	TopP        float64                `yaml:"top_p"`
	Extra       map[string]interface{} `yaml:",inline"`
}

// Default returns the configuration used when no config file is present. It
// matches the hosted OpenAI setup: a vision model for the trait analysis and
// a text model for the routine.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.IP = "0.0.0.0"
	cfg.Server.Port = DefaultPort
	cfg.Log.LogFormat = "text"
	cfg.Log.LogLevel = "info"
	cfg.SelectedModule = map[string]string{
		"VLLLM": "openai",
		"LLM":   "openai",
	}
	cfg.VLLLM = map[string]LLMConfig{
		"openai": {Type: "openai", ModelName: "gpt-4o", MaxTokens: DefaultVisionTokens},
	}
	cfg.LLM = map[string]LLMConfig{
		"openai": {Type: "openai", ModelName: "gpt-4", MaxTokens: DefaultRoutineTokens},
	}
	return cfg
}

// LoadEnvFile loads .env into the process environment unless APP_ENV says we
// are running in production. A missing file is not an error.
func LoadEnvFile() (bool, error) {
	if strings.EqualFold(os.Getenv("APP_ENV"), ProductionEnv) {
		return false, nil
	}
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("loading .env: %w", err)
	}
	return true, nil
}

// LoadConfig reads .config.yaml, falling back to config.yaml. When neither
// exists the defaults are used. Environment overrides are applied last.
func LoadConfig() (*Config, string, error) {
	path := ".config.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = "config.yaml"
	}

	config := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		path = ""
	case err != nil:
		return nil, path, err
	default:
		if err := Parse(data, config); err != nil {
			return nil, path, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := config.ApplyEnv(os.Getenv); err != nil {
		return nil, path, err
	}
	if err := config.Validate(); err != nil {
		return nil, path, err
	}

	return config, path, nil
}

// Parse decodes YAML on top of cfg, so absent keys keep their current value.
func Parse(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}

// ApplyEnv overrides configuration values from the environment. getenv is
// usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		c.Log.LogLevel = level
	}
	if format := getenv("LOG_FORMAT"); format != "" {
		c.Log.LogFormat = format
	}

	if key := getenv("OPENAI_API_KEY"); key != "" {
		fillAPIKey(c.LLM, key)
		fillAPIKey(c.VLLLM, key)
	}
	return nil
}

func fillAPIKey(entries map[string]LLMConfig, key string) {
	for name, entry := range entries {
		typ := entry.Type
		if typ == "" {
			typ = name
		}
		if strings.EqualFold(typ, "openai") && entry.APIKey == "" {
			entry.APIKey = key
			entries[name] = entry
		}
	}
}

// Validate checks the values that would otherwise only fail at request time.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.UpstreamTimeout < 0 {
		return fmt.Errorf("invalid upstream_timeout %s", c.Server.UpstreamTimeout)
	}
	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.LogLevel)) {
		return fmt.Errorf("invalid log level %q, must be one of %v", c.Log.LogLevel, validLogLevels)
	}
	if !slices.Contains(validLogFormats, strings.ToLower(c.Log.LogFormat)) {
		return fmt.Errorf("invalid log format %q, must be one of %v", c.Log.LogFormat, validLogFormats)
	}
	if _, err := c.Selected("VLLLM"); err != nil {
		return err
	}
	if _, err := c.Selected("LLM"); err != nil {
		return err
	}
	return nil
}

// Selected returns the entry chosen by selected_module for the given section,
// "VLLLM" for the vision call or "LLM" for the routine call.
func (c *Config) Selected(section string) (LLMConfig, error) {
	name := c.SelectedModule[section]
	if name == "" {
		return LLMConfig{}, fmt.Errorf("selected_module.%s is not set", section)
	}

	var entries map[string]LLMConfig
	switch section {
	case "VLLLM":
		entries = c.VLLLM
	case "LLM":
		entries = c.LLM
	default:
		return LLMConfig{}, fmt.Errorf("unknown module section %q", section)
	}

	entry, ok := entries[name]
	if !ok {
		return LLMConfig{}, fmt.Errorf("%s provider %q is not configured", section, name)
	}
	if entry.Type == "" {
		entry.Type = name
	}
	return entry, nil
}
