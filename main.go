package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "wikifeed/docs"
	"wikifeed/internal/api"
	"wikifeed/internal/assetcache"
	"wikifeed/internal/config"
	"wikifeed/internal/events"
	"wikifeed/internal/feed"
	"wikifeed/internal/itemcache"
	"wikifeed/internal/retry"
	"wikifeed/internal/seen"
	"wikifeed/internal/source"
	"wikifeed/internal/storage"
	"wikifeed/internal/transport"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize persistent storage for the seen-item window
	store, err := storage.NewStorage(cfg.DataDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	defer store.Close()

	// Initialize caches
	itemCache := itemcache.NewManager(cfg.Cache.ItemCapacity)
	assetCache := assetcache.New(cfg.Cache.AssetByteBudget, cfg.Cache.AssetMaxEntries)

	// Shared single-attempt transport; retry policy is layered above it
	fetcher := transport.NewHTTPFetcher(cfg.RequestTimeout)
	assetLoader := assetcache.NewLoader(assetCache, fetcher, cfg.Cache.AssetMaxDim, cfg.Cache.AssetDensity)

	// Content source
	var src source.Source
	switch cfg.SourceKind {
	case "featured":
		src = source.NewFeaturedFeed("")
	default:
		src = source.NewWikipedia(fetcher, "")
	}

	// Retry executor with per-identity shared attempt budgets
	retrier := retry.New(cfg.Retry.BaseDelay)

	// Seen sets are scoped per (language, topics) configuration
	newSeen := func(language string, topics []string) *seen.Set {
		return seen.NewSet(store, seen.Scope(language, topics), cfg.Feed.SeenTTL)
	}

	// Feed orchestrator
	feedCache := feed.New(src, retrier, itemCache, assetLoader, newSeen, cfg.Feed.Language, cfg.Feed.Topics, feed.Options{
		PageSize:        cfg.Feed.PageSize,
		VisibleBatch:    cfg.Feed.VisibleBatch,
		RefillBatch:     cfg.Feed.RefillBatch,
		BufferThreshold: cfg.Feed.BufferThreshold,
		AssetInterval:   cfg.Feed.AssetInterval,
		MaxAttempts:     cfg.Retry.MaxAttempts,
	})

	// Typed signal bus for config changes and memory pressure
	bus := events.NewBus()
	feedCache.Start(bus)

	// Seed the visible feed before serving
	log.Printf("Performing initial feed load (language=%s, topics=%v)", cfg.Feed.Language, cfg.Feed.Topics)
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := feedCache.RequestMore(initCtx, true); err != nil {
		log.Printf("Warning: initial feed load failed: %v", err)
	}
	initCancel()

	// Initialize API server
	server := api.NewServer(feedCache, assetLoader, bus, cfg)

	log.Printf("Starting wikifeed server on port %d", cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Item cache capacity: %d", cfg.Cache.ItemCapacity)
	log.Printf("Asset cache budget: %d bytes", cfg.Cache.AssetByteBudget)
	log.Printf("Seen TTL: %v", cfg.Feed.SeenTTL)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping services...")
		feedCache.Stop()
		cancel()
	}()

	if err := server.StartWithContext(ctx); err != nil && err != context.Canceled {
		log.Fatal("Failed to start server:", err)
	}
}
