package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from a .env file
func LoadEnv() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("No .env file loaded, using process environment")
	}
}

// GetEnv retrieves environment variables with a fallback
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(GetEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(GetEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type Config struct {
	Port         string
	MongoURI     string
	DatabaseName string

	JWTSecret string
	TokenTTL  time.Duration

	RedisURL string
	CacheTTL time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	FrontendURL         string

	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	// TrustedProxies are the ranges allowed to set X-Forwarded-For.
	TrustedProxies []*net.IPNet
}

// Load reads the process environment into a Config. Call LoadEnv first to
// pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                GetEnv("PORT", "5000"),
		MongoURI:            GetEnv("MONGODB_URI", ""),
		DatabaseName:        GetEnv("MONGODB_DB", "nexamart"),
		JWTSecret:           GetEnv("JWT_SECRET", ""),
		TokenTTL:            getDuration("JWT_TTL", 30*24*time.Hour),
		RedisURL:            GetEnv("REDIS_URL", ""),
		CacheTTL:            getDuration("CACHE_TTL", 5*time.Minute),
		StripeSecretKey:     GetEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		Currency:            strings.ToLower(GetEnv("CURRENCY", "usd")),
		FrontendURL:         strings.TrimRight(GetEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		AllowedOrigins:      getList("CORS_ORIGINS"),
		RateLimit:           getFloat("RATE_LIMIT_RPS", 5),
		RateBurst:           getInt("RATE_LIMIT_BURST", 10),
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGODB_URI is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	for _, cidr := range getList("TRUSTED_PROXIES") {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		cfg.TrustedProxies = append(cfg.TrustedProxies, ipNet)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{cfg.FrontendURL}
	}
	return cfg, nil
}
