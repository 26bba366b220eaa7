package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/analyst-9000/server/internal/agent/graph"
	"github.com/analyst-9000/server/internal/agent/llm"
	"github.com/analyst-9000/server/internal/agent/model"
	"github.com/analyst-9000/server/internal/core"
	"github.com/analyst-9000/server/internal/repo"
	"github.com/analyst-9000/server/internal/server"
	"github.com/analyst-9000/server/internal/service"
	"github.com/analyst-9000/server/internal/warehouse"
	logx "github.com/analyst-9000/server/pkg/logger"
	pkgredis "github.com/analyst-9000/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Server    server.Config
	Redis     pkgredis.Config
	Warehouse warehouse.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Agent        model.AgentConfig
	Conversation model.ConversationConfig
	Router       model.RouterModelConfig
	QA           model.QAModelConfig
	SQL          model.SQLModelConfig
	Synthesizer  model.SynthesizerModelConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	defer rdb.Close()

	ttl, err := time.ParseDuration(cfg.Conversation.SessionTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", cfg.Conversation.SessionTTL).Msg("Invalid CONVERSATION_SESSION_TTL")
	}
	sessions := repo.NewRedisSessionRepository(rdb, ttl)

	executor, err := warehouse.NewPostgresExecutor(cfg.Warehouse)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to connect to warehouse")
	}
	defer executor.Close()

	registry, err := llm.NewRegistry(ctx, llm.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Router:      cfg.Router,
		QA:          cfg.QA,
		SQL:         cfg.SQL,
		Synthesizer: cfg.Synthesizer,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise model registry")
	}

	streamer, err := graph.NewStreamer(ctx, &graph.Config{
		Gateway:       registry,
		Executor:      executor,
		MaxIterations: cfg.Agent.MaxIterations,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build analysis graph")
	}

	svc := service.NewChatService(sessions, streamer, cfg.Conversation.MaxHistoryMessages)
	srv := server.New(svc)

	go func() {
		if err := srv.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logx.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Server shutdown failed")
	}
}
