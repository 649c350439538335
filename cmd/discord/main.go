// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "tunesmith/internal/commands/core"
	_ "tunesmith/internal/commands/music"

	"tunesmith/internal/config"
	"tunesmith/internal/discord"
	"tunesmith/internal/music/jobs"
	"tunesmith/internal/music/player"
	"tunesmith/internal/music/resolver"
	"tunesmith/internal/storage"
	"tunesmith/internal/suno"
	v "tunesmith/internal/version"
)

func main() {
	log.Printf("[INFO] Starting %v bot...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	api := suno.New(cfg.SunoAPIKey, cfg.SunoAPIURL, cfg.PollRetries)
	poller := jobs.NewPoller(api, jobs.Options{
		BackoffMin: cfg.PollBackoffMin,
		BackoffMax: cfg.PollBackoffMax,
		MaxWait:    cfg.MaxGenerationWait,
	})
	res := resolver.New(api, poller, cfg.SearchLimit)

	bot := discord.NewBot(cfg, store, api, res)
	go player.RunIdleWatcher(ctx, bot.Registry(), cfg.IdleTimeout)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] Discord bot exited cleanly")
}
