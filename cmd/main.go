package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/voxrelay/server/adapters/stt"
	"github.com/voxrelay/server/adapters/translate"
	"github.com/voxrelay/server/domain/repositories"
	"github.com/voxrelay/server/internal/api"
	"github.com/voxrelay/server/internal/config"
	"github.com/voxrelay/server/internal/language"
	"github.com/voxrelay/server/internal/websocket"
	"github.com/voxrelay/server/usecase"
)

func main() {
	godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize adapters
	speechToText := buildSpeechToText(cfg, logger)
	translator := buildTranslator(cfg, logger)

	// Initialize usecase services
	languages := language.NewPolicy(cfg)
	transcriber := usecase.NewTranscriptionService(speechToText, translator, languages, logger)

	// Initialize WebSocket hub
	hub := websocket.NewHub(cfg, transcriber, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, hub, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("sttProvider", cfg.STTProvider),
		zap.String("translatorProvider", cfg.TranslatorProvider))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func buildSpeechToText(cfg *config.Config, logger *zap.Logger) repositories.SpeechToText {
	if cfg.STTProvider == "mock" {
		logger.Warn("Using mock speech-to-text adapter")
		return stt.NewMockSpeechToText(logger)
	}
	return stt.NewGoogleSpeechToText(logger)
}

// buildTranslator returns nil when no translation backend is available;
// transcripts then pass through untranslated with a warning.
func buildTranslator(cfg *config.Config, logger *zap.Logger) repositories.Translator {
	switch cfg.TranslatorProvider {
	case "off":
		logger.Warn("Translation disabled, transcripts will pass through untranslated")
		return nil
	case "mock":
		logger.Warn("Using mock translator")
		return translate.NewMockTranslator(logger)
	case "gemini":
		translator, err := translate.NewGeminiTranslator(logger)
		if err != nil {
			logger.Warn("Gemini translator unavailable, transcripts will pass through untranslated", zap.Error(err))
			return nil
		}
		return translator
	default:
		translator, err := translate.NewGoogleTranslator(context.Background(), logger)
		if err != nil {
			logger.Warn("Translation unavailable, transcripts will pass through untranslated", zap.Error(err))
			return nil
		}
		return translator
	}
}
