// Command zerosignal builds, serves and syncs offline context packs.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/ai"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/config/file"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/config/pack"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/fetcher"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/packclient"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/vectorstore"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/cli"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/services"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/postprocessors"
)

// version is set via -ldflags at build time.
var version = "dev"

// homeEnv overrides the configuration directory.
const homeEnv = "ZEROSIGNAL_HOME"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := cli.LoadEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	home, err := configHome()
	if err != nil {
		return err
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetProviderCheck(ai.Validate)
	cli.SetBootstrap(func(context.Context) (*cli.Services, func(), error) {
		return bootstrap(home, settingsService)
	})

	return cli.Execute()
}

func configHome() (string, error) {
	if dir := os.Getenv(homeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".zerosignal"), nil
}

// bootstrap wires stores, AI services and core services from settings.
// An unreachable embedding provider is not fatal: catalog, download and pull
// keep working and ingest or search report the missing provider.
func bootstrap(home string, settingsService *services.SettingsService) (*cli.Services, func(), error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	stores, err := vectorstore.Open(settings.Store, filepath.Join(home, "data"))
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() {
		if err := stores.Close(); err != nil {
			logger.Warn("closing stores: %v", err)
		}
	}}

	var promptStore driven.PromptStore
	if prompts, err := file.NewPromptStore(filepath.Join(home, "prompts")); err != nil {
		logger.Warn("prompt store unavailable, using built-in prompts: %v", err)
	} else {
		promptStore = prompts
	}

	var (
		embedder   driven.EmbeddingService
		summariser driven.Summariser
	)
	if aiResult, err := ai.Init(settings, promptStore); err != nil {
		logger.Warn("%v", err)
	} else {
		embedder = aiResult.EmbeddingService
		summariser = aiResult.Summariser
		closers = append(closers, aiResult.Close)
	}

	prefix := settings.Store.CollectionPrefix
	timeout := settings.Store.Timeout

	registry := services.NewRegistryService(stores.Vectors, stores.Registry, prefix, timeout)
	loader := pack.NewLoader()
	src := fetcher.New(fetcher.Config{
		UserAgent:         settings.Scraper.UserAgent,
		RequestsPerSecond: settings.Scraper.RequestsPerSecond,
		IgnoreRobots:      settings.Scraper.IgnoreRobots,
	})
	ingestor := services.NewIngestor(
		stores.Vectors,
		registry,
		embedder,
		src,
		postprocessors.DefaultRegistry(summariser),
		stores.Runs,
		services.IngestConfigFromSettings(*settings),
	)

	svc := &cli.Services{
		Catalog:   registry,
		Download:  services.NewDownloadService(stores.Vectors, prefix, timeout),
		Ingestor:  ingestor,
		Search:    services.NewSearchService(stores.Searcher, embedder, prefix, settings.Server.DefaultTopK, timeout),
		Scheduler: services.NewScheduler(stores.Scheduler, loader, ingestor, 0),
		Loader:    loader,
		NewPackSync: func(server string) (driving.PackSync, error) {
			client, err := packclient.New(packclient.Config{BaseURL: server})
			if err != nil {
				return nil, err
			}
			return services.NewPackSync(client, stores.Syncs, stores.Vectors, stores.Registry, services.PackSyncConfig{
				Server:           server,
				CollectionPrefix: prefix,
				MaxRetries:       settings.Ingest.MaxRetries,
				RetryBackoff:     settings.Ingest.RetryBackoff,
				Timeout:          timeout,
			}), nil
		},
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return svc, cleanup, nil
}
