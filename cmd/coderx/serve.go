package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"coderx/internal/config"
	"coderx/internal/logging"
	"coderx/internal/orchestrator"
	"coderx/internal/prompt"
	"coderx/internal/provider"
	"coderx/internal/server"
	"coderx/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func runServe(parent context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}
	if h := strings.TrimSpace(hostFlag); h != "" {
		cfg.Server.Host = h
	}
	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}

	logger, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage failed: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()

	providerClient := provider.NewOpenAIProvider(provider.OpenAIConfig{
		BaseURL:   cfg.Provider.BaseURL,
		TimeoutMS: cfg.Provider.TimeoutMS,
	})
	temperature := float32(cfg.Provider.Temperature)
	orch := orchestrator.New(providerClient, store, orchestrator.Options{
		Prompt: prompt.Options{
			HistoryWindow:    cfg.Prompt.HistoryWindow,
			FileContextLimit: cfg.Prompt.FileContextLimit,
			EscapeTags:       cfg.Prompt.EscapeTags,
		},
		DefaultModel:          cfg.Provider.Model,
		Temperature:           &temperature,
		TopP:                  float32(cfg.Provider.TopP),
		IgnoreBlankDirectives: cfg.Prompt.IgnoreBlankDirectives,
		Tokenizer:             prompt.NewTokenizerForModel(cfg.Provider.Model),
		Logger:                logger,
	})

	logger.Info("coderx starting",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("upstream", providerClient.BaseURL()),
		zap.String("model", cfg.Provider.Model),
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("escape_tags", cfg.Prompt.EscapeTags),
		zap.Bool("ignore_blank_directives", cfg.Prompt.IgnoreBlankDirectives))

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, orch, logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	return g.Wait()
}

// openStore picks the session backend named in config.
func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorageBackendSQLite:
		path, err := config.ExpandPath(cfg.Path)
		if err != nil {
			return nil, err
		}
		return storage.NewSQLiteStore(path)
	case config.StorageBackendMemory, "":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func runInitConfig(out io.Writer, dir string) error {
	path, created, err := config.InitProjectConfigScaffold(dir)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "wrote %s\n", path)
	} else {
		fmt.Fprintf(out, "%s already exists, left unchanged\n", path)
	}
	return nil
}
