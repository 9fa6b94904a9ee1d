package config

import (
	"os"
	"strconv"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port string

	MongoURI      string
	MongoDatabase string

	B2AccountID      string
	B2ApplicationKey string
	B2BucketID       string
	B2BucketName     string

	AllowOrigins string
	JWTSecret    string

	// Rate limiter ceilings, per key per rolling hour.
	UploadLimit   int
	DownloadLimit int
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8000"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DB", "file_sharing"),
		B2AccountID:      os.Getenv("B2_ACCOUNT_ID"),
		B2ApplicationKey: os.Getenv("B2_APPLICATION_KEY"),
		B2BucketID:       os.Getenv("B2_BUCKET_ID"),
		B2BucketName:     os.Getenv("B2_BUCKET_NAME"),
		AllowOrigins:     getEnv("CORS_ORIGIN", "http://localhost:3000"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret"),
		UploadLimit:      getEnvInt("UPLOAD_LIMIT", 10),
		DownloadLimit:    getEnvInt("DOWNLOAD_LIMIT", 100),
	}
}

// MissingStorageVars reports which required B2 variables are unset. The
// server still starts without them; storage requests fail lazily.
func (c *Config) MissingStorageVars() []string {
	var missing []string
	if c.B2AccountID == "" {
		missing = append(missing, "B2_ACCOUNT_ID")
	}
	if c.B2ApplicationKey == "" {
		missing = append(missing, "B2_APPLICATION_KEY")
	}
	if c.B2BucketID == "" {
		missing = append(missing, "B2_BUCKET_ID")
	}
	if c.B2BucketName == "" {
		missing = append(missing, "B2_BUCKET_NAME")
	}
	return missing
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
