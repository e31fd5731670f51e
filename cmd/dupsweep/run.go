package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/config"
	"github.com/fenilsonani/dupsweep/internal/logging"
	"github.com/fenilsonani/dupsweep/internal/platform"
	"github.com/fenilsonani/dupsweep/internal/reporter"
	"github.com/fenilsonani/dupsweep/internal/resolver"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/security"
	"github.com/fenilsonani/dupsweep/internal/ui"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func run(cmd *cobra.Command, f *flags, roots []string) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Output.NoColor {
		styles.DisableColor()
	}

	format, err := reporter.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	runID := logging.NewRunID()
	logger, flush, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Verbose: cfg.Output.Verbose,
		NoColor: cfg.Output.NoColor,
		RunID:   runID,
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer flush()

	opts, err := cfg.ScannerOptions()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validator, err := newValidator(cfg)
	if err != nil {
		return err
	}
	for _, root := range roots {
		if abs, err := filepath.Abs(root); err == nil && validator.IsProtectedPath(abs) {
			logger.Warn("scanning inside a protected system path, deletions there may be refused",
				zap.String("root", abs))
		}
	}

	fs := afero.NewOsFs()
	scnr := scanner.New(fs, opts, logger)

	// Debug records share stderr with the progress lines
	live := ui.NewLiveProgress(cmd.ErrOrStderr())
	if cfg.Output.Verbose {
		live.SetEnabled(false)
	}
	live.Start()
	stopWatch := live.Watch(scnr.GetProgressReporter())

	result, err := scnr.Scan(ctx, roots)
	stopWatch()
	live.Finish()
	if err != nil {
		if errors.Is(err, scanner.ErrNoValidRoots) {
			return fmt.Errorf("%w: %v", err, roots)
		}
		return err
	}

	out := cmd.OutOrStdout()
	reportOpts := reporter.Options{Verbose: cfg.Output.Verbose}

	if f.outputFile != "" {
		if err := reporter.SaveToFile(result, f.outputFile, format, reportOpts); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to: %s\n", f.outputFile)
	}

	if !f.interactive {
		if f.outputFile != "" {
			return nil
		}
		if err := reporter.New(out, format, reportOpts).Report(result); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		return nil
	}

	// Paths the scan could not read were never candidates for deletion
	fmt.Fprint(out, reporter.FormatWarnings(result.Errors, cfg.Output.Verbose))

	if len(result.Groups) == 0 {
		fmt.Fprintln(out, styles.SuccessStyle.Render("No duplicate files found."))
		return nil
	}

	return resolve(ctx, cmd, cfg, fs, validator, result, runID, logger)
}

func resolve(ctx context.Context, cmd *cobra.Command, cfg *config.Config, fs afero.Fs, validator *security.PathValidator, result *scanner.ScanResult, runID string, logger *zap.Logger) error {
	out := cmd.OutOrStdout()

	clnr := cleaner.New(fs, validator, logger)
	clnr.SetDryRun(cfg.Interactive.DryRun)
	clnr.SetRunID(runID)

	summary := result.Summary()
	fmt.Fprintf(out, "Found %d duplicate groups, %d redundant files.\n", summary.Groups, summary.DuplicateFiles)
	if cfg.Interactive.DryRun {
		fmt.Fprintln(out, styles.InfoStyle.Render("[DRY RUN MODE] No files will be deleted."))
	}

	var prompter resolver.Prompter
	if cfg.Interactive.TUI {
		prompter = ui.NewTUIPrompter(cmd.InOrStdin(), out, cfg.Interactive.DryRun)
	} else {
		prompter = ui.NewLinePrompter(cmd.InOrStdin(), out)
	}

	res := resolver.New(clnr, prompter, logger)
	outcome, runErr := res.Run(ctx, result.Groups)
	if outcome != nil {
		fmt.Fprintln(out)
		fmt.Fprint(out, reporter.FormatResolution(outcome))
	}

	if path := cfg.Interactive.ManifestPath; path != "" && len(clnr.GetManifest().Files) > 0 {
		if err := clnr.SaveManifest(path); err != nil {
			logger.Error("failed to save manifest", zap.String("path", path), zap.Error(err))
			if runErr == nil {
				return fmt.Errorf("failed to save manifest: %w", err)
			}
		} else {
			fmt.Fprintf(out, "Manifest saved to: %s\n", path)
		}
	}

	return runErr
}

func newValidator(cfg *config.Config) (*security.PathValidator, error) {
	validator := security.NewPathValidator()

	info, err := platform.GetInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get platform info: %w", err)
	}
	for _, path := range info.ProtectedPaths {
		validator.AddProtectedPath(path)
	}
	for _, path := range cfg.ProtectedPaths {
		validator.AddProtectedPath(path)
	}

	return validator, nil
}

// loadConfig layers defaults, the config file, .env, DUPSWEEP_* variables
// and finally explicitly set flags
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	path := f.configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	applyFlags(cmd, f, cfg)
	return cfg, cfg.Validate()
}

func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := func(name string) bool {
		flag := cmd.Flags().Lookup(name)
		return flag != nil && flag.Changed
	}

	if changed("verbose") {
		cfg.Output.Verbose = f.verbose
	}
	if changed("no-color") {
		cfg.Output.NoColor = f.noColor
	}
	if changed("output") {
		cfg.Output.Format = f.outputFmt
	}
	if changed("workers") {
		cfg.Scan.Workers = f.workers
	}
	if changed("chunk-size") {
		cfg.Scan.ChunkSize = f.chunkSize
	}
	if changed("min-size") {
		cfg.Scan.MinSize = f.minSize
	}
	if changed("max-size") {
		cfg.Scan.MaxSize = f.maxSize
	}
	if changed("exclude") {
		cfg.Scan.ExcludePatterns = append(cfg.Scan.ExcludePatterns, f.excludes...)
	}
	if changed("skip-hidden") {
		cfg.Scan.SkipHidden = f.skipHidden
	}
	if changed("verify") {
		cfg.Scan.Verify = f.verify
	}
	if changed("dry-run") {
		cfg.Interactive.DryRun = f.dryRun
	}
	if changed("tui") {
		cfg.Interactive.TUI = f.tui
	}
	if changed("manifest") {
		cfg.Interactive.ManifestPath = f.manifest
	}
	if changed("log-file") {
		cfg.Log.File = f.logFile
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
}

func newConfigCmd(f *flags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Display current configuration",
		Long:  `Shows the config file in use and the effective values after environment overrides.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := f.configPath
			if path == "" {
				var err error
				if path, err = config.GetConfigPath(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", path)
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, "Config file does not exist. Using default configuration.")
				fmt.Fprintln(out, "Run 'dupsweep config init' to create one.")
			}

			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return printConfig(out, cfg)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.configPath != "" {
				if _, err := os.Stat(f.configPath); err == nil {
					return fmt.Errorf("config file already exists: %s", f.configPath)
				}
				if err := config.Save(config.GetDefault(), f.configPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Config written to: %s\n", f.configPath)
				return nil
			}

			path, err := config.EnsureConfigExists()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", path)
			return nil
		},
	}

	configCmd.AddCommand(initCmd)
	return configCmd
}

func printConfig(out io.Writer, cfg *config.Config) error {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "scan.exclude_patterns:     %v\n", cfg.Scan.ExcludePatterns)
	fmt.Fprintf(out, "scan.min_size:             %s\n", orDash(cfg.Scan.MinSize))
	fmt.Fprintf(out, "scan.max_size:             %s\n", orDash(cfg.Scan.MaxSize))
	fmt.Fprintf(out, "scan.chunk_size:           %s\n", orDash(cfg.Scan.ChunkSize))
	fmt.Fprintf(out, "scan.workers:              %d\n", cfg.Scan.Workers)
	fmt.Fprintf(out, "scan.skip_hidden:          %t\n", cfg.Scan.SkipHidden)
	fmt.Fprintf(out, "scan.verify:               %t\n", cfg.Scan.Verify)
	fmt.Fprintf(out, "interactive.dry_run:       %t\n", cfg.Interactive.DryRun)
	fmt.Fprintf(out, "interactive.manifest_path: %s\n", orDash(cfg.Interactive.ManifestPath))
	fmt.Fprintf(out, "interactive.tui:           %t\n", cfg.Interactive.TUI)
	fmt.Fprintf(out, "output.format:             %s\n", orDash(cfg.Output.Format))
	fmt.Fprintf(out, "output.no_color:           %t\n", cfg.Output.NoColor)
	fmt.Fprintf(out, "log.level:                 %s\n", orDash(cfg.Log.Level))
	fmt.Fprintf(out, "log.file:                  %s\n", orDash(cfg.Log.File))
	fmt.Fprintf(out, "protected_paths:           %v\n", cfg.ProtectedPaths)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
