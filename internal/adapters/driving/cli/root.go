// Package cli provides the docqa command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// annotationPipeline marks commands that need the ingest and query services.
const annotationPipeline = "docqa/pipeline"

var version = "dev"

var (
	verbose   bool
	configDir string
	envFile   string
)

// Services used by commands. They are set by the loader, or directly by tests.
var (
	ingestService   driving.IngestService
	queryService    driving.QueryService
	chatLogService  driving.ChatLogService
	settingsService driving.SettingsService
	objectWatcher   driven.ObjectWatcher
)

// Pipeline is the set of services built from the application settings.
type Pipeline struct {
	Ingest  driving.IngestService
	Query   driving.QueryService
	ChatLog driving.ChatLogService

	// Watcher is nil when the storage backend cannot report changes.
	Watcher driven.ObjectWatcher

	// Close releases everything the pipeline holds open.
	Close func() error
}

// Loader builds services after flags are parsed.
type Loader struct {
	// Settings opens the settings service for the config directory.
	Settings func(configDir string) (driving.SettingsService, error)

	// Pipeline builds the pipeline services from settings.
	Pipeline func(ctx context.Context, configDir string, settings domain.AppSettings) (*Pipeline, error)
}

var (
	loader        Loader
	closePipeline func() error
)

// pipelineOverrides lets a command adjust settings from its flags before
// the pipeline is built.
var pipelineOverrides = map[*cobra.Command]func(*domain.AppSettings) error{}

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your documents",
	Long: `docqa indexes PDF documents from object storage into a vector index
and answers natural-language questions from the most relevant passages.

Configure an embedding and an LLM provider first:
  docqa settings wizard

Then index your documents and ask away:
  docqa ingest
  docqa ask "What does the warranty cover?"`,
	SilenceUsage:      true,
	PersistentPreRunE: preRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.docqa)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load if present")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetLoader installs the service builders used by commands.
func SetLoader(l Loader) {
	loader = l
}

// Execute runs the root command and releases the pipeline afterwards.
func Execute(ctx context.Context) error {
	defer func() {
		if closePipeline != nil {
			if err := closePipeline(); err != nil {
				logger.Warn("closing pipeline: %v", err)
			}
			closePipeline = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("loading %s: %v", envFile, err)
		}
	}

	if settingsService == nil && loader.Settings != nil {
		svc, err := loader.Settings(configDir)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		settingsService = svc
	}

	if cmd.Annotations[annotationPipeline] != "true" {
		return nil
	}
	return loadPipeline(cmd)
}

func loadPipeline(cmd *cobra.Command) error {
	if queryService != nil || loader.Pipeline == nil || settingsService == nil {
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if override, ok := pipelineOverrides[cmd]; ok {
		if err := override(settings); err != nil {
			return err
		}
	}

	p, err := loader.Pipeline(cmd.Context(), configDir, *settings)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			return fmt.Errorf("%w\nRun 'docqa settings wizard' to configure providers", err)
		}
		return fmt.Errorf("starting pipeline: %w", err)
	}

	ingestService = p.Ingest
	queryService = p.Query
	chatLogService = p.ChatLog
	objectWatcher = p.Watcher
	closePipeline = p.Close
	return nil
}

// requiresPipeline marks cmd as needing the pipeline services.
func requiresPipeline(cmd *cobra.Command) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationPipeline] = "true"
}
