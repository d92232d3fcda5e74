package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Retention  RetentionConfig
	Metadata   MetadataConfig
	Database   DatabaseConfig
	GigaChat   GigaChatConfig
	Extraction ExtractionConfig
	Admin      AdminConfig
	Logger     LoggerConfig
}

type LoggerConfig struct {
	Level string
	// File enables a rotating JSON log file next to stdout when non-empty.
	File string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
	AllowOrigins string
}

type StorageConfig struct {
	StagingDir string
	FinalDir   string
}

type RetentionConfig struct {
	MaxAge   time.Duration
	Interval time.Duration
}

// Metadata drivers.
const (
	MetadataDriverSQLite   = "sqlite"
	MetadataDriverPostgres = "postgres"
	MetadataDriverNone     = "none"
)

type MetadataConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

// Enabled reports whether a credential is configured for the completion service.
func (c GigaChatConfig) Enabled() bool {
	return c.APIKey != ""
}

type ExtractionConfig struct {
	PDFText bool
}

type AdminConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for containers
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "120"))
	bodyLimitMB, _ := strconv.Atoi(getEnv("SERVER_BODY_LIMIT_MB", "50"))
	maxAgeHours, _ := strconv.Atoi(getEnv("RETENTION_MAX_AGE_HOURS", "24"))
	intervalMinutes, _ := strconv.Atoi(getEnv("RETENTION_INTERVAL_MINUTES", "60"))
	adminTTLHours, _ := strconv.Atoi(getEnv("ADMIN_JWT_TTL_HOURS", "24"))

	if bodyLimitMB <= 0 {
		bodyLimitMB = 50
	}
	if maxAgeHours <= 0 {
		maxAgeHours = 24
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}
	if adminTTLHours <= 0 {
		adminTTLHours = 24
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", getEnv("SERVER_PORT", "8080")),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimit:    bodyLimitMB * 1024 * 1024,
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Storage: StorageConfig{
			StagingDir: getEnv("STORAGE_STAGING_DIR", "uploads/tmp"),
			FinalDir:   getEnv("STORAGE_FINAL_DIR", "uploads/files"),
		},
		Retention: RetentionConfig{
			MaxAge:   time.Duration(maxAgeHours) * time.Hour,
			Interval: time.Duration(intervalMinutes) * time.Minute,
		},
		Metadata: MetadataConfig{
			Driver:     strings.ToLower(getEnv("METADATA_DRIVER", MetadataDriverSQLite)),
			SQLitePath: getEnv("METADATA_SQLITE_PATH", "data/klens.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "klens"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "false") == "true",
		},
		Extraction: ExtractionConfig{
			PDFText: getEnv("PDF_TEXT_EXTRACTION", "true") == "true",
		},
		Admin: AdminConfig{
			JWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
			TokenTTL:  time.Duration(adminTTLHours) * time.Hour,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
