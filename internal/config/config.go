package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	Storage     string
	DBPath      string
	PostgresDSN string
	JWTSecret   string
	TokenTTL    time.Duration
	RateLimits  RateLimits

	Version   string
	Commit    string
	BuildTime string
}

type RateLimits struct {
	PostPerMinute    int
	CommentPerMinute int
	LikePerMinute    int
}

func Load() Config {
	addr := envString("PULSEFEED_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	cfg := Config{
		Addr:        addr,
		Storage:     envString("PULSEFEED_STORAGE", "sqlite"),
		DBPath:      envString("PULSEFEED_DB", "pulsefeed.db"),
		PostgresDSN: envString("PULSEFEED_PG_DSN", ""),
		JWTSecret:   envString("PULSEFEED_JWT_SECRET", "dev-jwt-secret"),
		TokenTTL:    envDuration("PULSEFEED_TOKEN_TTL", 24*time.Hour),
		RateLimits: RateLimits{
			PostPerMinute:    envInt("PULSEFEED_RL_POST_PER_MIN", 10),
			CommentPerMinute: envInt("PULSEFEED_RL_COMMENT_PER_MIN", 30),
			LikePerMinute:    envInt("PULSEFEED_RL_LIKE_PER_MIN", 120),
		},
		Version: "dev",
	}

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
