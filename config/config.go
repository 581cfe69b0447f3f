package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	HTTPAddr      string
	DatabasePath  string
	UploadDir     string
	MaxUploadSize int
	LogLevel      string

	AsymmetryNormal   float64
	AsymmetryElevated float64
	TempNormalMax     float64
	TempElevatedMax   float64

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiModel   string
	GeminiBaseURL string
	LLMTimeout    time.Duration

	MQTTBroker string
	MQTTTopic  string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8000"),
		DatabasePath:  getEnv("DATABASE_PATH", "thermo_monitor.db"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: os.Getenv("GEMINI_BASE_URL"),

		MQTTBroker: os.Getenv("MQTT_BROKER"),
		MQTTTopic:  getEnv("MQTT_TOPIC", "thermo/readings"),
	}

	var err error
	if cfg.MaxUploadSize, err = getInt("MAX_UPLOAD_SIZE", 10<<20); err != nil {
		return nil, err
	}
	if cfg.AsymmetryNormal, err = getFloat("ASYMMETRY_NORMAL", 0.5); err != nil {
		return nil, err
	}
	if cfg.AsymmetryElevated, err = getFloat("ASYMMETRY_ELEVATED", 1.0); err != nil {
		return nil, err
	}
	if cfg.TempNormalMax, err = getFloat("TEMP_NORMAL_MAX", 37.5); err != nil {
		return nil, err
	}
	if cfg.TempElevatedMax, err = getFloat("TEMP_ELEVATED_MAX", 38.0); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}

	if cfg.AsymmetryNormal > cfg.AsymmetryElevated {
		return nil, fmt.Errorf("ASYMMETRY_NORMAL (%g) must not exceed ASYMMETRY_ELEVATED (%g)", cfg.AsymmetryNormal, cfg.AsymmetryElevated)
	}
	if cfg.TempNormalMax > cfg.TempElevatedMax {
		return nil, fmt.Errorf("TEMP_NORMAL_MAX (%g) must not exceed TEMP_ELEVATED_MAX (%g)", cfg.TempNormalMax, cfg.TempElevatedMax)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected positive integer", key, v)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
