// Package cli provides the zerosignal command line interface.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// skipBootstrap marks commands that run without stores or AI services.
const skipBootstrap = "skip-bootstrap"

// Services holds everything the commands need. Nil fields disable the
// commands that depend on them.
type Services struct {
	Catalog   driving.CatalogService
	Download  driving.DownloadService
	Ingestor  driving.Ingestor
	Search    driving.SearchService
	Scheduler driving.Scheduler
	Loader    driven.PackLoader

	// NewPackSync builds a pull service for a remote server URL.
	NewPackSync func(server string) (driving.PackSync, error)
}

// Bootstrap builds the services for one command run. The returned cleanup
// releases stores and connections.
type Bootstrap func(ctx context.Context) (*Services, func(), error)

var (
	catalogService  driving.CatalogService
	downloadService driving.DownloadService
	ingestor        driving.Ingestor
	searchService   driving.SearchService
	scheduler       driving.Scheduler
	packLoader      driven.PackLoader
	newPackSync     func(server string) (driving.PackSync, error)
	checkProviders  func(settings *domain.AppSettings) error
	settingsService driving.SettingsService

	bootstrap Bootstrap
	cleanup   func()
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "zerosignal",
	Short: "Build, serve and sync offline context packs",
	Long: `ZeroSignal builds versioned context packs from web pages and local files,
stores them as embedded chunks, and serves them to offline clients through a
resumable download API.`,
	SilenceUsage:      true,
	PersistentPreRunE: preRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service. It is available to every
// command, including those that skip the bootstrap.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetProviderCheck sets the function that pings the configured embedding
// and LLM providers.
func SetProviderCheck(fn func(settings *domain.AppSettings) error) {
	checkProviders = fn
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices injects services directly.
func SetServices(s *Services) {
	catalogService = s.Catalog
	downloadService = s.Download
	ingestor = s.Ingestor
	searchService = s.Search
	scheduler = s.Scheduler
	packLoader = s.Loader
	newPackSync = s.NewPackSync
}

// LoadEnv loads .env from the working directory when present.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.ConfigureFromEnv()
	if verbose {
		logger.SetVerbose(true)
	}

	if bootstrap == nil || needsNoServices(cmd) {
		return nil
	}
	svc, done, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	SetServices(svc)
	cleanup = done
	return nil
}

// needsNoServices reports whether cmd or one of its parents skips bootstrap.
func needsNoServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipBootstrap] == "true" {
			return true
		}
	}
	return false
}

var errNotConfigured = errors.New("not configured; run 'zerosignal settings check'")
