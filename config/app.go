package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type AppConfig struct {
	Env           string
	Port          string
	Storage       string // postgres | memory
	LocalDataFile string
	CORSOrigins   []string
	LogLevel      string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	AIProvider     string
	AIAPIKey       string
	AIAPIURL       string
	AIModel        string
	VertexProject  string
	VertexLocation string

	AICacheTTL   time.Duration
	AICacheSize  int
	AIPersistTTL time.Duration
	ParseWorkers int
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		appConfig = appConfigFromEnv()
	})
	return appConfig
}

func appConfigFromEnv() *AppConfig {
	cfg := &AppConfig{
		Env:           getenv("APP_ENV", "development"),
		Port:          getenv("PORT", "8080"),
		Storage:       strings.ToLower(getenv("STORAGE", "postgres")),
		LocalDataFile: getenv("LOCAL_DATA_FILE", "applytrack-data.json"),
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", "http://localhost:5173")),
		LogLevel:      getenv("LOG_LEVEL", "info"),

		JWTSecret:   os.Getenv("AUTH_JWT_SECRET"),
		JWTIssuer:   os.Getenv("AUTH_JWT_ISSUER"),
		JWTAudience: os.Getenv("AUTH_JWT_AUDIENCE"),

		AIProvider:     getenv("AI_PROVIDER", "openai"),
		AIAPIKey:       os.Getenv("AI_API_KEY"),
		AIAPIURL:       os.Getenv("AI_API_URL"),
		AIModel:        os.Getenv("AI_MODEL"),
		VertexProject:  os.Getenv("VERTEX_PROJECT"),
		VertexLocation: os.Getenv("VERTEX_LOCATION"),

		AICacheTTL:   getDuration("AI_CACHE_TTL", 10*time.Minute),
		AICacheSize:  getInt("AI_CACHE_SIZE", 256),
		AIPersistTTL: getDuration("AI_PERSIST_TTL", 7*24*time.Hour),
		ParseWorkers: getInt("PARSE_WORKERS", 2),
	}
	if cfg.Storage != "memory" {
		cfg.Storage = "postgres"
	}
	return cfg
}

func (c *AppConfig) IsProduction() bool { return c.Env == "production" }

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getDuration accepts Go durations ("15m") or plain seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func getInt(key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && n > 0 {
		return n
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
