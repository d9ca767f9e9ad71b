package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/helper"
	"docqa/internal/llmservice"
	"docqa/internal/parser"
	"docqa/internal/session"
	"docqa/internal/web"
)

const (
	configFilePath = "./configs/config.yaml"
	sweepInterval  = time.Minute
)

func main() {
	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	flag.Parse()

	// a missing .env is fine, the key may come from the environment
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		helper.SetupLogger("info", "console")
		log.Fatal().Err(err).Msg("Error loading config")
	}
	helper.SetupLogger(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		log.Debug().Err(envErr).Msg("No .env file loaded")
	}

	log.Debug().Interface("config", cfg).Msg("Loaded config")
	for _, w := range cfg.Validate() {
		log.Warn().Msg(w)
	}

	ctrl := session.NewController(
		parser.NewIngestor(parser.NewPDFLoader(), cfg.RAG.TempDir),
		chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		session.RemoteServices{Embedding: cfg.EmbedLLM, Chat: cfg.LLM},
		cfg.APIKey,
		cfg.RAG.TopK,
		llmservice.CallOptions(cfg.LLM)...,
	)
	store := session.NewStore(cfg.Server.SessionTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go store.Run(ctx, sweepInterval)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           web.NewServer(ctrl, store, cfg.Server).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down server")
		}
	}()

	log.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}
