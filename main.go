package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slack-go/slack"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	var overrides *Overrides
	if cfg.OverridesPath != "" {
		overrides, err = LoadOverrides(cfg.OverridesPath)
		if err != nil {
			log.Fatalf("Failed to load overrides: %v", err)
		}
	}

	externalTimeout := time.Duration(cfg.ExternalHTTPTimeoutSeconds) * time.Second
	oracle := NewOracleClient(cfg.AnthropicAPIKey, cfg.OracleModel, externalTimeout)
	sinkClient := NewSinkClient(cfg.SinkWebhookURL, &http.Client{
		Timeout: externalTimeout,
	})
	corpus := NewComplaintCorpus(cfg.SeedComplaints)

	var notifier Notifier
	if cfg.SlackBotToken != "" {
		api := slack.New(cfg.SlackBotToken)
		if cfg.SlackConfigured() {
			notifier = NewSlackNotifier(api, cfg.AlertChannelID)
		}
		StartDigestScheduler(cfg, db, api)
	}

	pipeline := NewPipeline(oracle, corpus, overrides)
	dispatcher := NewDispatcher(sinkClient, oracle, notifier, cfg.ReplyFromAddress)
	agent := NewAgentLoop(pipeline, dispatcher, oracle)

	server := NewServer(db, pipeline, dispatcher, agent, sinkClient, oracle)

	srv := &http.Server{
		Addr:    ":" + cfg.ListenPort,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("Starting complaint triage service on port %s", cfg.ListenPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown: %v", err)
	}
	log.Println("Server exiting")
}
