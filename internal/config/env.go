package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string
	SslCertPath    string
	AIAPIKey       string
	EmbedModel     string
	EmbedDim       int
	EmbedCacheSize int
	Port           string

	// Import pipeline tuning.
	ChunkSize        int
	MaxRetries       int
	AttemptTimeoutMs int
	MaxFileSize      int64
	ImportWorkers    int
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "us-east-2"),
		BucketName:     getEnv("BUCKET_NAME", "vitalia-exports"),
		SslCertPath:    getEnv("SSL_CERT_PATH", ""),
		AIAPIKey:       getEnv("GEMINI_API_KEY", ""),
		EmbedModel:     getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:       getEnvInt("EMBED_DIM", 768),
		EmbedCacheSize: getEnvInt("EMBED_CACHE_SIZE", 1024),
		Port:           getEnv("PORT", "8080"),

		ChunkSize:        getEnvInt("CHUNK_SIZE", 5_242_880),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		AttemptTimeoutMs: getEnvInt("ATTEMPT_TIMEOUT_MS", 30_000),
		MaxFileSize:      getEnvInt64("MAX_FILE_SIZE", 5<<30),
		ImportWorkers:    getEnvInt("IMPORT_WORKERS", 2),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvInt64(key string, def int64) int64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
