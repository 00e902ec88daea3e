package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "FINSIGHT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "gemini.api_key", typ: kString, env: "FINSIGHT_GEMINI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Gemini.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.APIKey },
	},
	{
		key: "gemini.model", typ: kString, env: "FINSIGHT_GEMINI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.Model },
	},
	{
		key: "gemini.base_url", typ: kString, env: "FINSIGHT_GEMINI_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.BaseURL },
	},
	{
		key: "storage.data_dir", typ: kString, env: "FINSIGHT_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "assist.cache_ttl_hours", typ: kInt, env: "FINSIGHT_ASSIST_CACHE_TTL_HOURS",
		apply:   func(cfg *Config, v any) { cfg.Assist.CacheTTLHours = v.(int) },
		extract: func(cfg Config) any { return cfg.Assist.CacheTTLHours },
	},
	{
		key: "assist.rate_limit_max_requests", typ: kInt, env: "FINSIGHT_ASSIST_RATE_LIMIT_MAX_REQUESTS",
		apply:   func(cfg *Config, v any) { cfg.Assist.RateLimitMaxRequests = v.(int) },
		extract: func(cfg Config) any { return cfg.Assist.RateLimitMaxRequests },
	},
	{
		key: "assist.rate_limit_window_seconds", typ: kInt, env: "FINSIGHT_ASSIST_RATE_LIMIT_WINDOW_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.Assist.RateLimitWindowSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.Assist.RateLimitWindowSeconds },
	},
	{
		key: "assist.profit_bucket", typ: kInt, env: "FINSIGHT_ASSIST_PROFIT_BUCKET",
		apply:   func(cfg *Config, v any) { cfg.Assist.ProfitBucket = v.(int) },
		extract: func(cfg Config) any { return cfg.Assist.ProfitBucket },
	},
	{
		key: "api.token", typ: kString, env: "FINSIGHT_API_TOKEN",
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "log.level", typ: kString, env: "FINSIGHT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
