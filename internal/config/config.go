package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

type Config struct {
	Port           string
	DataDir        string
	MaxUploadBytes int64

	AIProvider   string
	GeminiAPIKey string
	GeminiModel  string

	LocalEndpoint     string
	LocalModel        string
	TranscriberPath   string
	TranscribeTimeout time.Duration

	JiraDomain   string
	JiraEmail    string
	JiraAPIToken string
}

func LoadConfig() (Config, error) {
	cfg := Config{}

	cfg.Port = envOrDefault("PORT", "3001")
	cfg.DataDir = envOrDefault("DATA_DIR", "data")

	cfg.AIProvider = strings.ToLower(envOrDefault("AI_PROVIDER", ProviderGemini))
	if cfg.AIProvider != ProviderGemini && cfg.AIProvider != ProviderLocal {
		return Config{}, fmt.Errorf("unknown AI_PROVIDER %q (want %q or %q)", cfg.AIProvider, ProviderGemini, ProviderLocal)
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = envOrDefault("GEMINI_MODEL", "gemini-2.5-flash")

	cfg.LocalEndpoint = envOrDefault("LOCAL_LLM_ENDPOINT", "http://localhost:11434/api/generate")
	cfg.LocalModel = envOrDefault("LOCAL_LLM_MODEL", "llama3")
	cfg.TranscriberPath = os.Getenv("TRANSCRIBER_PATH")

	transcribeSeconds, err := parseIntEnv("TRANSCRIBE_TIMEOUT_SECONDS", 300)
	if err != nil {
		return Config{}, fmt.Errorf("parse TRANSCRIBE_TIMEOUT_SECONDS: %w", err)
	}
	cfg.TranscribeTimeout = time.Duration(transcribeSeconds) * time.Second

	maxUploadMB, err := parseIntEnv("MAX_UPLOAD_MB", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_UPLOAD_MB: %w", err)
	}
	cfg.MaxUploadBytes = maxUploadMB * 1024 * 1024

	cfg.JiraDomain = os.Getenv("JIRA_DOMAIN")
	cfg.JiraEmail = os.Getenv("JIRA_EMAIL")
	cfg.JiraAPIToken = os.Getenv("JIRA_API_TOKEN")

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = absDataDir

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseIntEnv(key string, fallback int64) (int64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}

	num, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}
