package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ai-rustic/OCR-Bill2Sheet/internal/bill"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/config"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/db"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/export"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/gemini"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/httpapi"
	"github.com/ai-rustic/OCR-Bill2Sheet/internal/ingest"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	setupLogging(cfg)

	if len(cfg.GeminiAPIKeys) == 0 {
		log.Warn().Msg("no Gemini API keys configured; OCR requests will fail until keys are set")
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	rotator := gemini.NewKeyRotator(cfg.GeminiAPIKeys)
	client := gemini.NewClient(cfg, rotator, log.Logger)

	store := bill.NewPostgresStore(pool)
	pipeline := ingest.NewPipeline(client, store, log.Logger)
	exporter := export.NewService(store)

	billsHandler := httpapi.NewBillsHandler(store, exporter)
	ocrHandler := httpapi.NewOCRHandler(pipeline, log.Logger)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(gin.Default(), billsHandler, ocrHandler)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	log.Info().Str("addr", addr).Str("model", cfg.GeminiModel).
		Str("response_shape", string(cfg.GeminiResShape)).Msg("API running")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func setupLogging(cfg *config.Config) {
	switch cfg.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.AppEnv != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
