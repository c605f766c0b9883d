package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EmbedderConfig selects and configures the text embedder.
type EmbedderConfig struct {
	Type        string `yaml:"type" validate:"oneof=hashing openai gemini"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty"`
	Dimension   int    `yaml:"dimension" validate:"gt=0"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// LLMConfig selects and configures the language model used for narratives.
type LLMConfig struct {
	Type        string  `yaml:"type" validate:"oneof=openai claude gemini"`
	Model       string  `yaml:"model" validate:"required"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	APIKeyEnv   string  `yaml:"api_key_env" validate:"required"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
	TimeoutSecs int     `yaml:"timeout_secs" validate:"gte=0"`
}

// VectorIndexConfig configures the local retrieval index.
type VectorIndexConfig struct {
	Path string `yaml:"path" validate:"required"`
	// OnDimensionChange is "rebuild" (discard and start over) or "reject".
	OnDimensionChange string `yaml:"on_dimension_change" validate:"oneof=rebuild reject"`
	DefaultK          int    `yaml:"default_k" validate:"gte=1"`
}

// TravelConfig holds endpoints and keys for the informational APIs.
type TravelConfig struct {
	WikipediaURL      string  `yaml:"wikipedia_url" validate:"required,url"`
	MapsURL           string  `yaml:"maps_url" validate:"required,url"`
	WeatherURL        string  `yaml:"weather_url" validate:"required,url"`
	MapsAPIKeyEnv     string  `yaml:"maps_api_key_env"`
	WeatherAPIKeyEnv  string  `yaml:"weather_api_key_env"`
	TopN              int     `yaml:"top_n" validate:"gte=1"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	TimeoutSecs       int     `yaml:"timeout_secs" validate:"gte=0"`
}

// FlightsConfig holds Amadeus connection settings.
type FlightsConfig struct {
	BaseURL           string  `yaml:"base_url" validate:"required,url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	APISecretEnv      string  `yaml:"api_secret_env"`
	MaxPrice          float64 `yaml:"max_price" validate:"gt=0"`
	MaxOffers         int     `yaml:"max_offers" validate:"gte=1"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	TimeoutSecs       int     `yaml:"timeout_secs" validate:"gte=0"`
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	Level  string   `yaml:"level" validate:"oneof=trace debug info warn error"`
	Output []string `yaml:"output" validate:"dive,oneof=stdout console file"`
	File   string   `yaml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorIndex VectorIndexConfig `yaml:"vector_index"`
	Travel      TravelConfig      `yaml:"travel"`
	Flights     FlightsConfig     `yaml:"flights"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Validate checks field constraints declared on the config structs.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Secret returns the value of the environment variable named by env.
func Secret(env string) string {
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/travelrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/travelrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "travelrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{Type: "hashing"},
		LLM:      LLMConfig{Type: "openai"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	e := &cfg.Embedder
	if e.Type == "" {
		e.Type = "hashing"
	}
	switch e.Type {
	case "hashing":
		if e.Dimension == 0 {
			e.Dimension = 512
		}
	case "openai":
		if e.BaseURL == "" {
			e.BaseURL = "https://api.openai.com/v1"
		}
		if e.APIKeyEnv == "" {
			e.APIKeyEnv = "OPENAI_API_KEY"
		}
		if e.Model == "" {
			e.Model = "text-embedding-3-small"
		}
		if e.Dimension == 0 {
			e.Dimension = 1536
		}
	case "gemini":
		if e.APIKeyEnv == "" {
			e.APIKeyEnv = "GEMINI_API_KEY"
		}
		if e.Model == "" {
			e.Model = "text-embedding-004"
		}
		if e.Dimension == 0 {
			e.Dimension = 768
		}
	}
	if e.TimeoutSecs == 0 {
		e.TimeoutSecs = 30
	}

	l := &cfg.LLM
	if l.Type == "" {
		l.Type = "openai"
	}
	switch l.Type {
	case "openai":
		if l.Model == "" {
			l.Model = "gpt-4"
		}
		if l.APIKeyEnv == "" {
			l.APIKeyEnv = "OPENAI_API_KEY"
		}
	case "claude":
		if l.Model == "" {
			l.Model = "claude-sonnet-4-20250514"
		}
		if l.APIKeyEnv == "" {
			l.APIKeyEnv = "ANTHROPIC_API_KEY"
		}
	case "gemini":
		if l.Model == "" {
			l.Model = "gemini-2.5-flash"
		}
		if l.APIKeyEnv == "" {
			l.APIKeyEnv = "GEMINI_API_KEY"
		}
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 2048
	}
	if l.TimeoutSecs == 0 {
		l.TimeoutSecs = 120
	}

	v := &cfg.VectorIndex
	if v.Path == "" {
		v.Path = "travel_index"
	}
	if v.OnDimensionChange == "" {
		v.OnDimensionChange = "rebuild"
	}
	if v.DefaultK == 0 {
		v.DefaultK = 2
	}

	t := &cfg.Travel
	if t.WikipediaURL == "" {
		t.WikipediaURL = "https://en.wikipedia.org/api/rest_v1"
	}
	if t.MapsURL == "" {
		t.MapsURL = "https://maps.googleapis.com/maps/api"
	}
	if t.WeatherURL == "" {
		t.WeatherURL = "http://api.openweathermap.org/data/2.5"
	}
	if t.MapsAPIKeyEnv == "" {
		t.MapsAPIKeyEnv = "GOOGLE_MAPS_API_KEY"
	}
	if t.WeatherAPIKeyEnv == "" {
		t.WeatherAPIKeyEnv = "WEATHER_API_KEY"
	}
	if t.TopN == 0 {
		t.TopN = 5
	}
	if t.RequestsPerSecond == 0 {
		t.RequestsPerSecond = 5
	}
	if t.TimeoutSecs == 0 {
		t.TimeoutSecs = 15
	}

	f := &cfg.Flights
	if f.BaseURL == "" {
		f.BaseURL = "https://test.api.amadeus.com"
	}
	if f.APIKeyEnv == "" {
		f.APIKeyEnv = "AMADEUS_API_KEY"
	}
	if f.APISecretEnv == "" {
		f.APISecretEnv = "AMADEUS_API_SECRET"
	}
	if f.MaxPrice == 0 {
		f.MaxPrice = 20000
	}
	if f.MaxOffers == 0 {
		f.MaxOffers = 5
	}
	if f.RequestsPerSecond == 0 {
		f.RequestsPerSecond = 5
	}
	if f.TimeoutSecs == 0 {
		f.TimeoutSecs = 30
	}

	g := &cfg.Logging
	if g.Level == "" {
		g.Level = "info"
	}
	if len(g.Output) == 0 {
		g.Output = []string{"stdout"}
	}
}
