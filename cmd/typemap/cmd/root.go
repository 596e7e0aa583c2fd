// Package cmd provides the CLI commands for typemap.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/typemap/internal/config"
	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/logging"
	"github.com/Aman-CERP/typemap/pkg/version"
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// Flags shared by every command that scans.
var (
	configFile  string
	rootFlags   []string
	packageName string
	workers     int
	jsonOutput  bool
	plainOutput bool
	noColor     bool
)

// NewRootCmd creates the root command for the typemap CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "typemap",
		Short: "Index and query JVM type metadata",
		Long: `typemap scans directories, jars, tar streams and archives nested in
archives, and builds an in-memory map of type hierarchies, tags,
member signatures and resource locations.

Every query command scans the configured roots first. Roots come from
--root, then from the roots list in .typemap.yaml, and finally from the
conventional Maven or Gradle source and output directories.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("typemap version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.typemap/logs/")
	pf.StringVar(&configFile, "config", "", "Use this config file instead of .typemap.yaml")
	pf.StringSliceVar(&rootFlags, "root", nil, "Root to scan (repeatable; overrides the config roots)")
	pf.StringVar(&packageName, "package", "", "Only scan this Java package (e.g. com.acme.api)")
	pf.IntVar(&workers, "workers", 0, "Roots scanned in parallel (0 keeps the config value)")
	pf.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	pf.BoolVar(&plainOutput, "plain", false, "Plain progress output even on a terminal")
	pf.BoolVar(&noColor, "no-color", false, "Disable colors")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newSubtypesCmd())
	cmd.AddCommand(newTaggedCmd())
	cmd.AddCommand(newMethodsCmd())
	cmd.AddCommand(newFieldsCmd())
	cmd.AddCommand(newTypesCmd())
	cmd.AddCommand(newResourcesCmd())
	cmd.AddCommand(newHierarchyCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging enables file logging when --debug is set. The format
// follows the logging section of the config when it loads.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	lc := logging.DebugConfig()
	if cfg, _, err := loadConfig(); err == nil {
		lc.Format = cfg.Logging.Format
	}
	logger, cleanup, err := logging.Setup(lc)
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("Debug logging enabled",
		slog.String("log_file", lc.FilePath),
		slog.String("version", version.Version))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// cliLogger is the logger handed to the library: the debug file logger
// when --debug is set, otherwise the configured level and format on the
// command's stderr.
func cliLogger(cmd *cobra.Command, lc config.LoggingConfig) *slog.Logger {
	if debugMode {
		return slog.Default()
	}
	return logging.New(cmd.ErrOrStderr(), lc.Level, lc.Format)
}

// Execute runs the root command and prints any error for the terminal.
func Execute() error {
	return execute(NewRootCmd())
}

// execute runs cmd and prints its error on stderr, as JSON with --json.
func execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err == nil {
		return nil
	}
	w := cmd.ErrOrStderr()
	if jsonOutput {
		if data, jerr := errors.FormatJSON(err); jerr == nil {
			_, _ = fmt.Fprintln(w, string(data))
			return err
		}
	}
	_, _ = fmt.Fprint(w, errors.FormatForCLI(err))
	return err
}
