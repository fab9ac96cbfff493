package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/quidome/media-sorter/pkg/config"
	"github.com/quidome/media-sorter/pkg/createdat"
	"github.com/quidome/media-sorter/pkg/logging"
	"github.com/quidome/media-sorter/pkg/organize"
	"github.com/quidome/media-sorter/pkg/scan"
)

const version = "0.2.0"

type options struct {
	verbose    bool
	dryRun     bool
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "media-sorter",
		Short:   "Sort photos and videos into dated folders",
		Long:    "Media Sorter moves or copies photos and videos into YYYY-MM folders based on their capture date, keeping Live Photo pairs together.",
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Media Sorter CLI")
			cmd.Printf("Version: %s\n", version)
			if opts.verbose {
				cmd.Println("Verbose mode: enabled")
			}
			if opts.dryRun {
				cmd.Println("Dry run mode: enabled")
			}
			cmd.Println("")
			cmd.Println("Use --help to see available commands and options")
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "perform a dry run without making changes")
	flags.StringVar(&opts.configPath, "config", "", "path to config file (default ~/.config/media-sorter/config.toml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(newOrganizeCmd(opts))
	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// loadConfig reads the config file and applies the persistent flags that were set.
func loadConfig(opts *options) (*config.Config, string, bool, error) {
	cfg, path, exists, err := config.Load(opts.configPath)
	if err != nil {
		return nil, "", false, err
	}
	switch {
	case opts.logLevel != "":
		cfg.Logging.Level = opts.logLevel
	case opts.verbose:
		cfg.Logging.Level = "debug"
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	if opts.dryRun {
		cfg.Organize.Simulate = true
	}
	if err := cfg.Finalize(); err != nil {
		return nil, "", false, err
	}
	return cfg, path, exists, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
}

func newOrganizeCmd(opts *options) *cobra.Command {
	var (
		copyFiles      bool
		subfolders     bool
		includeUndated bool
		undatedFolder  string
		noProgress     bool
	)

	organizeCmd := &cobra.Command{
		Use:   "organize <source> [destination]",
		Short: "Sort media files into YYYY-MM folders",
		Long: "Sort the photos and videos under source into YYYY-MM folders below destination " +
			"(default: source itself). Live Photo videos follow the photo they belong to.",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadConfig(opts)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("copy") {
				cfg.Organize.Copy = copyFiles
			}
			if flags.Changed("subfolders") {
				cfg.Organize.IncludeSubfolders = subfolders
			}
			if flags.Changed("include-undated") {
				cfg.Organize.IncludeUndated = includeUndated
			}
			if flags.Changed("undated-folder") {
				cfg.Organize.UndatedFolder = undatedFolder
			}
			if len(args) == 2 {
				cfg.Organize.Destination = args[1]
			}
			if err := cfg.Finalize(); err != nil {
				return err
			}

			source, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve source: %w", err)
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			logger = logger.With(slog.String("run_id", uuid.NewString()), slog.String("source", source))

			lock, err := acquireLock(source)
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("release lock", slog.Any("error", err))
				}
			}()

			out := newOutcomePrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), !noProgress)
			engine := organize.New(afero.NewOsFs(), organize.Options{
				Destination:    cfg.Organize.Destination,
				Simulate:       cfg.Organize.Simulate,
				Copy:           cfg.Organize.Copy,
				IncludeUndated: cfg.Organize.IncludeUndated,
				UndatedFolder:  cfg.Organize.UndatedFolder,
				Metadata:       createdat.DefaultReader(),
				Location:       loc,
				Logger:         logger,
				Observer:       out,
			})

			report, err := engine.Organize(source, cfg.ScanOptions(cfg.Organize.IncludeSubfolders))
			out.finish()
			if err != nil {
				return err
			}

			if report.Found == 0 {
				cmd.Println("Found no media.")
				return nil
			}
			fmt.Fprint(cmd.ErrOrStderr(), renderSummary(report))

			if failed := report.Count(organize.ActionError); failed > 0 {
				return fmt.Errorf("%d of %d items failed", failed, len(report.Outcomes))
			}
			return nil
		},
	}

	flags := organizeCmd.Flags()
	flags.BoolVar(&copyFiles, "copy", false, "copy files instead of moving them")
	flags.BoolVar(&subfolders, "subfolders", true, "include files in subfolders of source")
	flags.BoolVar(&includeUndated, "include-undated", true, "relocate files without a date into the undated folder")
	flags.StringVar(&undatedFolder, "undated-folder", config.Default().Organize.UndatedFolder, "folder name for files without a date")
	flags.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	return organizeCmd
}

func newScanCmd(opts *options) *cobra.Command {
	var maxDepth int

	scanCmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory for media files",
		Long:  "Scan a directory and print all media files found (relative to the scan root).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadConfig(opts)
			if err != nil {
				return err
			}

			scanOpts := cfg.ScanOptions(true)
			scanOpts.MaxDepth = maxDepth

			matches, err := scan.Scan(afero.NewOsFs(), args[0], scanOpts)
			if err != nil {
				return err
			}

			images := 0
			for _, match := range matches {
				cmd.Println(match.Rel)
				if match.Kind == scan.KindImage {
					images++
				}
			}

			if opts.verbose {
				cmd.PrintErrf("found %d media files (%d images, %d videos)\n", len(matches), images, len(matches)-images)
			}

			return nil
		},
	}

	scanCmd.Flags().IntVar(&maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")

	return scanCmd
}

func newConfigCmd(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if exists {
				cmd.Printf("# loaded from %s\n", path)
			} else {
				cmd.Printf("# defaults (no config file at %s)\n", path)
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	})

	return configCmd
}
