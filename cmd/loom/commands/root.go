// Package commands implements the CLI commands for the loom resolver.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/loom/internal/adapters/telemetry"
	"go.trai.ch/loom/internal/app"
	"go.trai.ch/loom/internal/build"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
)

// ErrProjectAbsent is returned when the requested project, or the requested
// framework of it, cannot be resolved.
var ErrProjectAbsent = errors.New("project not found")

// Application represents the application logic interface.
type Application interface {
	ProjectInfo(ctx context.Context, path string) (*domain.ProjectInformation, bool, error)
	Dependencies(ctx context.Context, path, framework, configuration string) ([]domain.DependencyDescription, error)
	Diagnostics(ctx context.Context, path, framework, configuration string) ([]domain.DiagnosticMessage, bool, error)
	FileReferences(ctx context.Context, path, framework, configuration string) ([]string, bool, error)
	ProjectReferences(ctx context.Context, path, framework, configuration string) ([]domain.ProjectReferenceInfo, error)
	Sources(ctx context.Context, path, framework, configuration string) ([]string, bool, error)
	CompilerOptions(ctx context.Context, path, framework, configuration string) (domain.CompilerOptions, bool, error)
	Projects(ctx context.Context, root string) ([]string, error)
	Watch(
		ctx context.Context,
		path string,
		watcher ports.Watcher,
		filter app.ChangeFilter,
		opts app.WatchOptions,
		report func(*app.Snapshot),
	) error
}

// LogControl is implemented by loggers whose format and level can be changed
// from flags.
type LogControl interface {
	SetJSON(enable bool)
	SetLevel(level slog.Level)
}

// Option configures a CLI.
type Option func(*CLI)

// WithLogger sets the logger used by long running commands. Loggers that
// implement LogControl follow the --json and --verbose flags.
func WithLogger(logger ports.Logger) Option {
	return func(c *CLI) { c.logger = logger }
}

// WithWatcher enables the watch command.
func WithWatcher(newWatcher func() (ports.Watcher, error), filter app.ChangeFilter) Option {
	return func(c *CLI) {
		c.newWatcher = newWatcher
		c.filter = filter
	}
}

// CLI represents the command line interface for loom.
type CLI struct {
	app        Application
	logger     ports.Logger
	newWatcher func() (ports.Watcher, error)
	filter     app.ChangeFilter
	rootCmd    *cobra.Command

	workspace     string
	framework     string
	configuration string
	jsonOutput    bool
	verbose       bool
	trace         bool
	flushTraces   func(context.Context) error
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           build.Name,
		Short:         "Resolve the dependency graph of projects in a workspace",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}} (commit: %s)\n", build.Commit))
	// --version has no shorthand so that -v stays with --verbose.
	rootCmd.Flags().Bool("version", false, "Print the application version")
	rootCmd.InitDefaultVersionFlag()

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.workspace, "workspace", "w", ".", "Directory that relative project paths are resolved against")
	flags.StringVarP(&c.framework, "framework", "f", "", "Target framework (default: every framework of the project)")
	flags.StringVarP(&c.configuration, "configuration", "c", "Debug", "Build configuration")
	flags.BoolVar(&c.jsonOutput, "json", false, "Print results and logs as JSON")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&c.trace, "trace", false, "Write resolution spans to stderr")

	rootCmd.PersistentPreRunE = c.before

	rootCmd.AddCommand(c.newInfoCmd())
	rootCmd.AddCommand(c.newProjectsCmd())
	rootCmd.AddCommand(c.newDepsCmd())
	rootCmd.AddCommand(c.newRefsCmd())
	rootCmd.AddCommand(c.newFilesCmd())
	rootCmd.AddCommand(c.newSourcesCmd())
	rootCmd.AddCommand(c.newDiagnosticsCmd())
	rootCmd.AddCommand(c.newOptionsCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) before(cmd *cobra.Command, _ []string) error {
	if control, ok := c.logger.(LogControl); ok {
		control.SetJSON(c.jsonOutput)
		if c.verbose {
			control.SetLevel(slog.LevelDebug)
		}
	}
	if c.trace {
		flush, err := telemetry.ExportTo(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		c.flushTraces = flush
	}
	return nil
}

// Execute runs the root command with the given context. Spans recorded
// under --trace are flushed even when the command fails.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if c.flushTraces != nil {
		flush := c.flushTraces
		c.flushTraces = nil
		err = errors.Join(err, flush(context.WithoutCancel(ctx)))
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// projectPath resolves the optional path argument against --workspace.
func (c *CLI) projectPath(args []string) string {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.workspace, path)
}
