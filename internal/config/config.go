package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ResponseShape selects which top-level JSON shape the Gemini model is
// asked for and which one the normalizer expects back.
type ResponseShape string

const (
	// ShapeInvoiceItems is an object with invoice metadata plus an items list.
	ShapeInvoiceItems ResponseShape = "invoice_items"
	// ShapeFlatItems is a flat list of fully merged line-item objects.
	ShapeFlatItems ResponseShape = "flat_items"
)

type Config struct {
	AppEnv     string
	ServerPort int
	LogLevel   string

	DatabaseURL string

	GeminiBaseURL  string
	GeminiModel    string
	GeminiAPIKeys  []string
	GeminiTimeout  time.Duration
	GeminiResShape ResponseShape
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		ServerPort:     8000,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		GeminiAPIKeys:  ParseAPIKeys(os.Getenv("GEMINI_API_KEYS"), os.Getenv("GEMINI_API_KEY")),
		GeminiTimeout:  120 * time.Second,
		GeminiResShape: ShapeInvoiceItems,
	}

	if port := os.Getenv("APP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("APP_PORT must be a number: %w", err)
		}
		cfg.ServerPort = p
	}

	if secs := os.Getenv("GEMINI_TIMEOUT_SECONDS"); secs != "" {
		n, err := strconv.Atoi(secs)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("GEMINI_TIMEOUT_SECONDS must be a positive number")
		}
		cfg.GeminiTimeout = time.Duration(n) * time.Second
	}

	switch shape := os.Getenv("GEMINI_RESPONSE_SHAPE"); shape {
	case "":
	case string(ShapeInvoiceItems), string(ShapeFlatItems):
		cfg.GeminiResShape = ResponseShape(shape)
	default:
		return nil, fmt.Errorf("GEMINI_RESPONSE_SHAPE must be %q or %q", ShapeInvoiceItems, ShapeFlatItems)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// ParseAPIKeys resolves the configured key pool: a comma-separated list
// takes precedence over the single-key variable. Entries are trimmed,
// empties dropped and duplicates removed with order preserved.
func ParseAPIKeys(list string, single string) []string {
	raw := list
	if raw == "" {
		raw = single
	}
	if raw == "" {
		return nil
	}

	seen := make(map[string]bool)
	var keys []string
	for _, item := range strings.Split(raw, ",") {
		key := strings.TrimSpace(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
