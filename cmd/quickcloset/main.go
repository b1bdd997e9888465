package main

import (
	"log"
	"log/slog"
	"math/rand/v2"

	"github.com/vbonduro/quickcloset/internal/config"
	"github.com/vbonduro/quickcloset/internal/db"
	"github.com/vbonduro/quickcloset/internal/logging"
	"github.com/vbonduro/quickcloset/internal/service"
	"github.com/vbonduro/quickcloset/internal/store"
	"github.com/vbonduro/quickcloset/internal/vision"
	claudevision "github.com/vbonduro/quickcloset/internal/vision/claude"
	ollamavision "github.com/vbonduro/quickcloset/internal/vision/ollama"
	"github.com/vbonduro/quickcloset/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	itemStore := store.NewItemStore(database)
	outfitStore := store.NewOutfitStore(database)
	composer := service.NewComposer(itemStore, outfitStore, rand.IntN)

	wardrobe := service.NewWardrobeService(itemStore, outfitStore, composer, newSuggester(cfg, logger), logger)
	server := web.NewServer(wardrobe, database, web.Options{
		CORSOrigin:   cfg.CORSOrigin,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newSuggester returns nil when suggestions are disabled or misconfigured.
func newSuggester(cfg *config.Config, logger *slog.Logger) vision.Suggester {
	switch cfg.VisionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when VISION_BACKEND=claude; tag suggestions disabled")
			return nil
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeSuggester(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaSuggester(cfg.OllamaHost, cfg.OllamaModel)
	case "", "none":
		logger.Info("tag suggestions disabled")
		return nil
	default:
		logger.Warn("unknown VISION_BACKEND; tag suggestions disabled", "backend", cfg.VisionBackend)
		return nil
	}
}
