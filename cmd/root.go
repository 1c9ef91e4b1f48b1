// Package cmd implements the modfetch command line interface.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modfetch/modfetch/internal/config"
	"github.com/modfetch/modfetch/internal/journal"
	"github.com/modfetch/modfetch/internal/logger"
	"github.com/modfetch/modfetch/internal/orchestrator"
)

const defaultConfigFile = "mods.toml"

var (
	flagFeatures  []string
	flagDryRun    bool
	flagDebug     bool
	flagNoHistory bool
)

var rootCmd = &cobra.Command{
	Use:     "modfetch [config]",
	Short:   "Minecraft mod download manager",
	Long:    "modfetch resolves mods against the Modrinth API, expands required dependencies,\ndownloads everything with checksum verification and optionally packages the\nresult as a modpack archive.",
	Version: "0.2.0",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runRoot,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringArrayVarP(&flagFeatures, "feature", "f", nil, "enable a feature flag (repeatable)")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "validate the config without downloading")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "do not record this run in the history journal")

	rootCmd.AddCommand(historyCmd)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	return 0
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := logger.Init(flagDebug, config.LogPath()); err != nil {
		return err
	}
	defer logger.Close()

	configPath := defaultConfigFile
	if len(args) == 1 {
		configPath = args[0]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Features = append(cfg.Features, flagFeatures...)

	if flagDryRun {
		printSummary(cmd, configPath, cfg)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []orchestrator.Option{}

	if !flagNoHistory {
		store, err := openJournal()
		if err != nil {
			logger.Warnf("history journal unavailable: %v", err)
		} else {
			defer store.Close()
			opts = append(opts, orchestrator.WithJournal(store))
		}
	}

	return orchestrator.New(cfg, configPath, opts...).Run(ctx)
}

func openJournal() (*journal.Store, error) {
	path := config.HistoryPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	return journal.Open(path)
}

func printSummary(cmd *cobra.Command, configPath string, cfg *config.Config) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "config OK: %s\n", configPath)
	fmt.Fprintf(out, "  game versions: %v\n", cfg.Minecraft.Versions)
	fmt.Fprintf(out, "  mod loader:    %s\n", cfg.Minecraft.Loader)
	fmt.Fprintf(out, "  mods:          %d\n", len(cfg.Minecraft.Mods))
	fmt.Fprintf(out, "  resourcepacks: %d\n", len(cfg.Minecraft.ResourcePacks))
	fmt.Fprintf(out, "  shaderpacks:   %d\n", len(cfg.Minecraft.ShaderPacks))
	fmt.Fprintf(out, "  extra urls:    %d\n", len(cfg.Minecraft.ExtraURLs))
	if len(cfg.Features) > 0 {
		fmt.Fprintf(out, "  features:      %v\n", cfg.Features)
	}
}
