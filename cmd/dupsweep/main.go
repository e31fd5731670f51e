package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// flags holds every command line option of a single invocation
type flags struct {
	configPath  string
	interactive bool
	tui         bool
	verbose     bool
	noColor     bool
	outputFmt   string
	outputFile  string
	workers     int
	chunkSize   string
	minSize     string
	maxSize     string
	excludes    []string
	skipHidden  bool
	verify      bool
	dryRun      bool
	manifest    string
	logFile     string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "dupsweep [flags] <path>...",
		Short: "Find duplicate files and safely remove redundant copies",
		Long: `dupsweep finds files with byte-identical content across one or more
directory trees. By default it only reports what it found. With --interactive it
walks every duplicate group and deletes the copies you choose not to keep,
re-checking each file right before it is removed and never deleting the last copy.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file path (.yaml or .toml)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging and full warning list")
	pf.BoolVar(&f.noColor, "no-color", false, "disable colored output")

	fl := rootCmd.Flags()
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "choose which copies to keep and delete the rest")
	fl.BoolVar(&f.tui, "tui", false, "use the full-screen selector in interactive mode")
	fl.StringVarP(&f.outputFmt, "output", "o", "", "report format (summary, table, json, yaml)")
	fl.StringVar(&f.outputFile, "file", "", "write the report to a file")
	fl.IntVar(&f.workers, "workers", 0, "parallel hashing workers (0 = automatic)")
	fl.StringVar(&f.chunkSize, "chunk-size", "", "read size while hashing, e.g. 64KB")
	fl.StringVar(&f.minSize, "min-size", "", "ignore files smaller than this")
	fl.StringVar(&f.maxSize, "max-size", "", "ignore files larger than this")
	fl.StringArrayVar(&f.excludes, "exclude", nil, "glob pattern to exclude (repeatable)")
	fl.BoolVar(&f.skipHidden, "skip-hidden", false, "skip dot files and directories")
	fl.BoolVar(&f.verify, "verify", false, "byte-compare group members after hashing")
	fl.BoolVar(&f.dryRun, "dry-run", false, "show what would be deleted without deleting")
	fl.StringVar(&f.manifest, "manifest", "", "write a record of deleted files to this path")
	fl.StringVar(&f.logFile, "log-file", "", "write JSON debug logs to this file")
	fl.StringVar(&f.logLevel, "log-level", "", "console log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd(f))
	return rootCmd
}
