package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Stage names accepted by the STAGE setting.
const (
	StageAll    = "all"
	StageSongs  = "songs"
	StageEvents = "events"
)

// Config holds application configuration.
type Config struct {
	AppName    string
	AppVersion string

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// Staging directories holding the source files.
	SongDataDir string
	LogDataDir  string

	// Stage selects which pipeline stages run: all, songs or events.
	Stage string

	// Workers bounds the batch driver's file concurrency. 1 means sequential.
	Workers int

	// MetricsAddr, when set, exposes /metrics on that address for the
	// duration of the run.
	MetricsAddr string

	ProgressEvery int
}

// Load loads configuration from environment variables and an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:       getenv("APP_SERVICE", "tunelake"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		DBType:        getenv("DATABASE_TYPE", "mysql"),
		DBHost:        getenv("DATABASE_HOST", "localhost"),
		DBPort:        getenv("DATABASE_PORT", "3306"),
		DBName:        getenv("DATABASE_NAME", "tunelake"),
		DBUser:        getenv("DATABASE_USER", "tunelake"),
		DBPassword:    getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:     getenv("DATABASE_SSLMODE", "disable"),
		SongDataDir:   getenv("SONG_DATA_DIR", "data/song_data"),
		LogDataDir:    getenv("LOG_DATA_DIR", "data/log_data"),
		Stage:         normalizeStage(getenv("STAGE", StageAll)),
		Workers:       getenvInt("WORKERS", 1),
		MetricsAddr:   strings.TrimSpace(getenv("METRICS_ADDR", "")),
		ProgressEvery: getenvInt("PROGRESS_EVERY", 100),
	}
}

func normalizeStage(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StageSongs:
		return StageSongs
	case StageEvents:
		return StageEvents
	default:
		return StageAll
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return def
	}
	return parsed
}
