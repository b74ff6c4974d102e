package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"datachat_llm/internal/agent"
	"datachat_llm/internal/config"
	"datachat_llm/internal/logger"
	"datachat_llm/internal/plot"
	"datachat_llm/internal/server"
	"datachat_llm/internal/session"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second
	sessions := session.NewStore(ttl)

	var history session.HistoryRepository
	if cfg.Session.RedisURL != "" {
		redisRepo, err := session.NewRedisHistoryRepository(ctx, cfg.Session.RedisURL, ttl)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisRepo.Close()
		history = redisRepo
		logger.Info().Msg("Conversation history backed by Redis")
	} else {
		history = session.NewMemoryHistoryRepository()
		logger.Warn().Msg("REDIS_URL not set, conversation history is in-memory only")
	}

	cm, err := agent.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create chat model")
	}

	plots, err := plot.NewSaver(cfg.Server.PlotsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to prepare plots directory")
	}

	// idle sessions are swept in the background so memory stays bounded
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := sessions.Sweep(); removed > 0 {
					logger.Debug().Int("removed", removed).Msg("Swept expired sessions")
				}
			}
		}
	}()

	srv := server.New(*cfg, sessions, history, agent.New(cm, cfg.Agent.MaxToolIterations), plots)

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("model", cfg.LLM.Model).
		Msg("Starting server")

	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server stopped")
	}
	logger.Info().Msg("Server shut down")
}
