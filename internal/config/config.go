package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port            string        // HTTP port
	ListenAddr      string        // HTTP listen address, derived from Port
	AppName         string        // Name shown in the welcome payload
	LogLevel        string        // zerolog level name
	LogFormat       string        // "json" or "console"
	CORSOrigins     []string      // Allowed CORS origins
	RateLimitRPS    float64       // Requests per second across the API, 0 disables
	RateLimitBurst  int           // Token bucket size
	JWTSecret       string        // HS256 secret guarding write routes, empty disables
	GRPCAddr        string        // gRPC health listen address, empty disables
	ShutdownTimeout time.Duration // Grace period for in-flight requests
}

// Load reads an optional dotenv file and then configuration from environment
// variables, falling back to defaults. Variables already present in the
// process environment take precedence over the dotenv file.
func Load() *Config {
	_ = godotenv.Load(envOrDefault("ENV_FILE", ".env"))

	port := envOrDefault("PORT", "3000")
	return &Config{
		Port:            port,
		ListenAddr:      ":" + port,
		AppName:         envOrDefault("APP_NAME", "Users API"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		CORSOrigins:     splitList(envOrDefault("CORS_ORIGINS", "*")),
		RateLimitRPS:    envOrDefaultFloat("RATE_LIMIT_RPS", 1000),
		RateLimitBurst:  envOrDefaultInt("RATE_LIMIT_BURST", 5000),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		GRPCAddr:        envOrDefault("GRPC_ADDR", ":50051"),
		ShutdownTimeout: envOrDefaultDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// splitList turns a comma-separated value into a list, dropping blanks and
// trailing slashes from origins.
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimRight(strings.TrimSpace(p), "/"); s != "" {
			out = append(out, s)
		}
	}
	return out
}
