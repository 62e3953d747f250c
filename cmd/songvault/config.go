package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL    string
	Addr           string
	JWTSecret      string
	TokenTTL       time.Duration
	MediaBaseURL   string
	MediaAPIKey    string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	RateLimitRPS   float64
	RateLimitBurst int
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET env var is required")
	}
	mediaBase := os.Getenv("MEDIA_BASE_URL")
	if mediaBase == "" {
		return Config{}, errors.New("MEDIA_BASE_URL env var is required")
	}

	ttl, err := parseDuration(envOrDefault("TOKEN_TTL", "24h"))
	if err != nil {
		return Config{}, err
	}
	rps, err := parseFloat(envOrDefault("RATE_LIMIT_RPS", "20"))
	if err != nil {
		return Config{}, err
	}
	burst, err := parseInt(envOrDefault("RATE_LIMIT_BURST", "40"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		DatabaseURL:    dsn,
		Addr:           fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		JWTSecret:      secret,
		TokenTTL:       ttl,
		MediaBaseURL:   mediaBase,
		MediaAPIKey:    os.Getenv("MEDIA_API_KEY"),
		AllowedOrigins: parseAllowedOrigins(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("LOG_FORMAT", "json"),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseAllowedOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	var origins []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func parseDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse TOKEN_TTL: %w", err)
	}
	return d, nil
}

func parseFloat(raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse RATE_LIMIT_RPS: %w", err)
	}
	return f, nil
}

func parseInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
	}
	return n, nil
}
