package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default Replicate model identifiers used by the generation gateway.
const (
	DefaultScriptModel = "meta/llama-2-70b-chat:02e509c789964a7ea8736978a43525956ef40397be9033abf9fd2badfe68c9e3"
	DefaultVideoModel  = "stability-ai/stable-video-diffusion:3d4c3c5ecf5b1c27243b5f2f8d7b4c8a7c66a8b2"
)

// Script providers selectable through SCRIPT_PROVIDER.
const (
	ScriptProviderReplicate = "replicate"
	ScriptProviderOpenAI    = "openai"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Host   string
	Port   string

	ReplicateAPIKey       string
	ReplicateBaseURL      string
	ReplicateScriptModel  string
	ReplicateVideoModel   string
	ReplicatePollInterval time.Duration
	ReplicateTimeout      time.Duration

	ScriptProvider string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string

	FFmpegPath     string
	UploadDir      string
	MaxUploadBytes int64

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// A missing REPLICATE_API_KEY is not an error here; remote calls report it when invoked.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Host:                  getEnv("HOST", "0.0.0.0"),
		Port:                  getEnv("PORT", "8000"),
		ReplicateAPIKey:       strings.TrimSpace(os.Getenv("REPLICATE_API_KEY")),
		ReplicateBaseURL:      getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateScriptModel:  getEnv("REPLICATE_SCRIPT_MODEL", DefaultScriptModel),
		ReplicateVideoModel:   getEnv("REPLICATE_VIDEO_MODEL", DefaultVideoModel),
		ReplicatePollInterval: time.Millisecond * time.Duration(getEnvInt("REPLICATE_POLL_INTERVAL_MS", 1000)),
		ReplicateTimeout:      time.Second * time.Duration(getEnvInt("REPLICATE_TIMEOUT_SECONDS", 0)),
		ScriptProvider:        strings.ToLower(getEnv("SCRIPT_PROVIDER", ScriptProviderReplicate)),
		OpenAIAPIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		FFmpegPath:            getEnv("FFMPEG_PATH", "ffmpeg"),
		UploadDir:             getEnv("UPLOAD_DIR", os.TempDir()),
		MaxUploadBytes:        int64(getEnvInt("MAX_UPLOAD_MB", 50)) << 20,
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
	}

	switch cfg.ScriptProvider {
	case ScriptProviderReplicate:
	case ScriptProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when SCRIPT_PROVIDER=openai")
		}
	default:
		return nil, fmt.Errorf("unsupported SCRIPT_PROVIDER %q", cfg.ScriptProvider)
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	return cfg, nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
