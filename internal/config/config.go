package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Gemini  GeminiConfig
	Storage StorageConfig
	Assist  AssistConfig
	API     APIConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type StorageConfig struct {
	DataDir string
}

type AssistConfig struct {
	CacheTTLHours          int
	RateLimitMaxRequests   int
	RateLimitWindowSeconds int
	ProfitBucket           int
}

type APIConfig struct {
	Token string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Assist: AssistConfig{
			CacheTTLHours:          24,
			RateLimitMaxRequests:   5,
			RateLimitWindowSeconds: 60,
			ProfitBucket:           1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration in layers: built-in defaults, then the JSON file
// at $XDG_CONFIG_HOME/finsight/config.json, then a .env file in the working
// directory, then FINSIGHT_* environment variables. Later layers win.
//
// Secrets (the Gemini API key) are never read from the config file; they
// must come from the environment or .env.
func Load() (Config, error) {
	godotenv.Load()
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Gemini.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: Gemini API key. " +
			"Set it via environment variable FINSIGHT_GEMINI_API_KEY or a .env file")
	}

	return cfg, nil
}

// EnsureAPIToken returns the bearer token clients authenticate with,
// generating and persisting one on first run.
func EnsureAPIToken(cfg *Config) (string, error) {
	return ensureAPITokenWith(cfg, newPlatformBackend())
}

func ensureAPITokenWith(cfg *Config, b ConfigBackend) (string, error) {
	if cfg.API.Token != "" {
		return cfg.API.Token, nil
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := b.SetString("api.token", token); err != nil {
		return "", fmt.Errorf("persisting api token: %w", err)
	}
	cfg.API.Token = token
	return token, nil
}
