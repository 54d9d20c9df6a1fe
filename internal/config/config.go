package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret     string
	JWTExpiration time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Matching
	QueueTimeout       time.Duration // 대기열 항목 만료
	LockWait           time.Duration // 분산 잠금 대기 한도
	LockLease          time.Duration // 분산 잠금 임대 시간
	MatchRetryInterval time.Duration // WebSocket 재시도 주기

	// Call sessions
	MaxCallDuration      time.Duration // 최대 통화 시간
	CallExpiryInterval   time.Duration // 통화 만료 스윕 주기
	QueueCleanupInterval time.Duration // 대기열 정리 주기
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		MigrationsDir:        getEnv("MIGRATIONS_DIR", "migrations"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		JWTSecret:            getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:        parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		QueueTimeout:         parseDuration(getEnv("QUEUE_TIMEOUT", "300s"), 5*time.Minute),
		LockWait:             parseDuration(getEnv("LOCK_WAIT", "3s"), 3*time.Second),
		LockLease:            parseDuration(getEnv("LOCK_LEASE", "10s"), 10*time.Second),
		MatchRetryInterval:   parseDuration(getEnv("MATCH_RETRY_INTERVAL", "2s"), 2*time.Second),
		MaxCallDuration:      parseDuration(getEnv("MAX_CALL_DURATION", "5m"), 5*time.Minute),
		CallExpiryInterval:   parseDuration(getEnv("CALL_EXPIRY_INTERVAL", "60s"), time.Minute),
		QueueCleanupInterval: parseDuration(getEnv("QUEUE_CLEANUP_INTERVAL", "5m"), 5*time.Minute),
		CORSAllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}
