package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dangpham/sitesearch/internal/api"
	"github.com/dangpham/sitesearch/internal/config"
	"github.com/dangpham/sitesearch/internal/crawler"
	"github.com/dangpham/sitesearch/internal/fetcher"
	"github.com/dangpham/sitesearch/internal/indexer"
	"github.com/dangpham/sitesearch/internal/indexing"
	"github.com/dangpham/sitesearch/internal/lemmatizer"
	"github.com/dangpham/sitesearch/internal/search"
	"github.com/dangpham/sitesearch/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*configPath, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(configPath string, log *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := storage.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	finder := lemmatizer.NewFinder()
	f := fetcher.New(fetcher.Config{
		Timeout:       cfg.Crawl.Timeout,
		UserAgent:     cfg.Crawl.UserAgent,
		RespectRobots: cfg.Crawl.RespectRobots,
	})
	ix := indexer.New(store)
	c := crawler.New(f, finder, store, ix, log, crawler.Config{
		Workers:    cfg.Crawl.Workers,
		Politeness: cfg.Crawl.Politeness,
	})

	orchestrator := indexing.NewService(cfg.Sites, store, f, c, ix, finder, log)
	engine := search.New(store, finder, orchestrator, search.Config{
		SnippetWindow:       cfg.Search.SnippetWindow,
		SnippetMaxFragments: cfg.Search.SnippetMaxFragments,
	})
	handler := api.NewHandler(orchestrator, engine, log, cfg.Search.DefaultLimit)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Addr), zap.Int("sites", len(cfg.Sites)))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	if orchestrator.IsIndexing() {
		orchestrator.StopIndexing()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
