// cmd/channelbot/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/cogs/core"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/config"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/engine"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/sources/schedule"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/sources/wsfeed"
	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/storage"
)

func main() {
	log.Println("[INFO] Starting channel bot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	go storage.RunHistoryTrimmer(ctx, store)

	manager := engine.NewManager()
	engine.Use(manager, "filter_text", engine.FilterMessageText)

	dispatcher := engine.NewCommandDispatcher(&storage.PrefixResolver{
		Store:    store,
		Fallback: cfg.Prefixes,
	})
	dispatcher.OnInvoke = storage.Recorder(store)
	if err := manager.AddDispatcher(dispatcher); err != nil {
		log.Fatal(err)
	}

	if err := manager.AddCog(ctx, core.New(dispatcher, store, cfg.Prefixes)); err != nil {
		log.Fatal(err)
	}

	feed := wsfeed.New(wsfeed.Options{
		URL:      cfg.FeedURL,
		Token:    cfg.FeedToken,
		BotLogin: cfg.BotLogin,
	})
	manager.AddEventSource(feed)

	if entries, err := schedule.Load(cfg.ScheduleFile); err != nil {
		log.Printf("[WARN] Schedule disabled: %v", err)
	} else if len(entries) > 0 {
		sched := schedule.New(entries)
		manager.AddEventSource(sched)
		if err := sched.Start(); err != nil {
			log.Fatal(err)
		}
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := feed.Run(ctx); err != nil {
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
		if err != nil && err != context.Canceled {
			log.Println("[ERR] Feed error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	manager.StopAll(context.Background())
	log.Println("[INFO] Channel bot exited cleanly")
}
