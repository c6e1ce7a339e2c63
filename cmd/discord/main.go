// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"server-kidnap/internal/config"
	"server-kidnap/internal/discord"
	"server-kidnap/internal/logging"
	"server-kidnap/internal/status"
	"server-kidnap/internal/storage"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("[ERR] %v", err)
	}

	logs := logging.Setup(cfg)
	defer logs.Close()

	log.Println("[INFO] Starting server-kidnap bot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	bot, err := discord.NewBot(cfg, store)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.StatusAddr != "" {
		go func() {
			if err := status.Run(ctx, cfg.StatusAddr, bot); err != nil {
				log.Printf("[ERR] [Status] Server exited: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
	case err := <-errCh:
		log.Println("[ERR] Discord bot error:", err)
	}
	cancel()
	<-done

	log.Println("[INFO] Discord bot exited cleanly")
}
