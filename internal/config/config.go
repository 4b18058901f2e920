package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Docstore backends
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
)

// Object storage backends
const (
	StorageR2       = "r2"
	StorageFirebase = "firebase"
)

type Config struct {
	ServerPort string

	JWTSecret         string
	AccessTokenMaxAge int

	DocstoreBackend string

	FirebaseProjectID     string
	FirebaseClientEmail   string
	FirebasePrivateKey    string
	FirebaseStorageBucket string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisURL string

	AladinTTBKey     string
	AladinBaseURL    string
	AladinRateLimit  float64
	SearchCacheTTL   time.Duration
	StorageBackend   string
	R2AccountID      string
	R2AccessKeyID    string
	R2SecretKey      string
	R2BucketName     string
	R2PublicURL      string
	CORSOrigins      []string
	OTLPEndpoint     string
	WorkerCount      int
	WorkerBatchSize  int
	ShutdownDeadline time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	return &Config{
		ServerPort: envOr("SERVER_PORT", "8080"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AccessTokenMaxAge: envInt("ACCESS_TOKEN_MAX_AGE", 3600),

		DocstoreBackend: envOr("DOCSTORE_BACKEND", BackendFirestore),

		FirebaseProjectID:     os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseClientEmail:   os.Getenv("FIREBASE_CLIENT_EMAIL"),
		FirebasePrivateKey:    os.Getenv("FIREBASE_PRIVATE_KEY"),
		FirebaseStorageBucket: os.Getenv("FIREBASE_STORAGE_BUCKET"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     envOr("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  envOr("DB_SSLMODE", "require"),

		RedisURL: envOr("REDIS_URL", "redis://localhost:6379"),

		AladinTTBKey:    os.Getenv("ALADIN_TTB_KEY"),
		AladinBaseURL:   os.Getenv("ALADIN_BASE_URL"),
		AladinRateLimit: envFloat("ALADIN_RATE_LIMIT", 5),
		SearchCacheTTL:  envDuration("SEARCH_CACHE_TTL", 10*time.Minute),

		StorageBackend: envOr("STORAGE_BACKEND", StorageFirebase),
		R2AccountID:    os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:  os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretKey:    os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:   os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:    os.Getenv("R2_PUBLIC_URL"),

		CORSOrigins:  splitList(envOr("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		WorkerCount:      envInt("WORKER_COUNT", 2),
		WorkerBatchSize:  envInt("WORKER_BATCH_SIZE", 10),
		ShutdownDeadline: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
