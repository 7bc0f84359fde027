package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values.
type Config struct {
	AppEnv string
	Host   string
	Port   string
	DBPath string

	// Origin allowed to call the API from a browser; empty disables CORS
	CORSOrigin string

	// External txt2img runner
	PythonPath             string
	StableDiffusionDir     string
	StableDiffusionOutputs string

	// Expansion guard
	ExpansionWarnAt int
	ExpansionMax    int

	PollInterval time.Duration
}

const minPollIntervalMS = 50

// Load reads .env files (if present) and then environment variables.
func Load() Config {
	// Missing .env files are not an error.
	_ = godotenv.Load(".env", ".env.local")

	sdDir := getEnv("SD_DIR", "")
	return Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Host:   getEnv("HOST", "127.0.0.1"),
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "prompt-matrix.db"),

		CORSOrigin: getEnv("CORS_ORIGIN", ""),

		PythonPath:             getEnv("PYTHON_PATH", "python"),
		StableDiffusionDir:     sdDir,
		StableDiffusionOutputs: getEnv("SD_OUTPUT_DIR", defaultOutputDir(sdDir)),

		ExpansionWarnAt: getEnvInt("EXPANSION_WARN_AT", 100),
		ExpansionMax:    getEnvInt("EXPANSION_MAX", 1000),

		PollInterval: pollInterval(getEnvInt("POLL_INTERVAL_MS", 1000)),
	}
}

// defaultOutputDir is where scripts/txt2img.py writes its samples.
func defaultOutputDir(sdDir string) string {
	if sdDir == "" {
		return ""
	}
	return sdDir + "/outputs/txt2img-samples"
}

// pollInterval clamps non-positive values so the runner never busy-spins
func pollInterval(ms int) time.Duration {
	if ms < minPollIntervalMS {
		ms = minPollIntervalMS
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
