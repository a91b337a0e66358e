package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/ui/style"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// frameworkResult is one framework's answer to a query.
type frameworkResult[T any] struct {
	Framework string `json:"framework"`
	Result    T      `json:"result"`
}

// query resolves the selected frameworks of a project concurrently.
type query[T any] func(ctx context.Context, path, framework, configuration string) (T, bool, error)

// frameworks returns --framework, or every framework the project declares.
func (c *CLI) frameworks(ctx context.Context, path string) ([]string, error) {
	info, ok, err := c.app.ProjectInfo(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, zerr.With(ErrProjectAbsent, "path", path)
	}

	names := make([]string, 0, len(info.Frameworks))
	for _, fw := range info.Frameworks {
		names = append(names, fw.String())
	}
	if c.framework == "" {
		return names, nil
	}

	selected, err := domain.ParseFramework(c.framework)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, selected.String()) {
		return nil, zerr.With(zerr.With(ErrProjectAbsent, "path", path), "framework", selected.String())
	}
	return []string{selected.String()}, nil
}

func runQuery[T any](ctx context.Context, c *CLI, path string, q query[T]) ([]frameworkResult[T], error) {
	frameworks, err := c.frameworks(ctx, path)
	if err != nil {
		return nil, err
	}

	results := make([]frameworkResult[T], len(frameworks))
	g, gctx := errgroup.WithContext(ctx)
	for i, fw := range frameworks {
		g.Go(func() error {
			value, ok, err := q(gctx, path, fw, c.configuration)
			if err != nil {
				return err
			}
			if !ok {
				return zerr.With(zerr.With(ErrProjectAbsent, "path", path), "framework", fw)
			}
			results[i] = frameworkResult[T]{Framework: fw, Result: value}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// always adapts operations that report absence as an empty result.
func always[T any](
	op func(ctx context.Context, path, framework, configuration string) (T, error),
) query[T] {
	return func(ctx context.Context, path, framework, configuration string) (T, bool, error) {
		value, err := op(ctx, path, framework, configuration)
		return value, true, err
	}
}

// newQueryCmd builds a command printing one query per framework.
func newQueryCmd[T any](c *CLI, use, short string, q query[T], render func(*renderer, T)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [path]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := runQuery(cmd.Context(), c, c.projectPath(args), q)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			r := newRenderer(cmd.OutOrStdout())
			for _, res := range results {
				r.section(res.Framework)
				render(r, res.Result)
			}
			return nil
		},
	}
}

func (c *CLI) newDepsCmd() *cobra.Command {
	return newQueryCmd(c, "deps", "List every library of the project graph",
		always(c.app.Dependencies), renderDependencies)
}

func (c *CLI) newRefsCmd() *cobra.Command {
	return newQueryCmd(c, "refs", "List project references",
		always(c.app.ProjectReferences), renderProjectReferences)
}

func (c *CLI) newFilesCmd() *cobra.Command {
	return newQueryCmd(c, "files", "List assembly file references",
		c.app.FileReferences, (*renderer).list)
}

func (c *CLI) newSourcesCmd() *cobra.Command {
	return newQueryCmd(c, "sources", "List project and exported source files",
		c.app.Sources, (*renderer).list)
}

func (c *CLI) newDiagnosticsCmd() *cobra.Command {
	return newQueryCmd(c, "diagnostics", "List resolution problems",
		c.app.Diagnostics, renderDiagnostics)
}

func (c *CLI) newOptionsCmd() *cobra.Command {
	return newQueryCmd(c, "options", "Show merged compiler options",
		c.app.CompilerOptions, renderCompilerOptions)
}

func renderDependencies(r *renderer, deps []domain.DependencyDescription) {
	if len(deps) == 0 {
		r.empty()
		return
	}
	for _, dep := range deps {
		icon := r.success.Render(style.Check)
		if !dep.Resolved {
			icon = r.failure.Render(style.Cross)
		}
		name := dep.Name
		if dep.Version != "" {
			name += " " + dep.Version
		}
		r.line("%s %s %s", icon, name, r.muted.Render(string(dep.Kind)))
		for _, item := range dep.Dependencies {
			version := item.Version
			if version == "" {
				version = "?"
			}
			r.line("    %s %s %s", r.muted.Render("→"), item.Name, r.muted.Render(version))
		}
	}
}

func renderProjectReferences(r *renderer, refs []domain.ProjectReferenceInfo) {
	if len(refs) == 0 {
		r.empty()
		return
	}
	for _, ref := range refs {
		r.line("%s %s", ref.Name, r.muted.Render(ref.Path))
		if ref.WrappedProjectPath != "" {
			r.line("    %s %s", r.muted.Render("wraps"), ref.WrappedProjectPath)
		}
	}
}

func renderDiagnostics(r *renderer, diagnostics []domain.DiagnosticMessage) {
	if len(diagnostics) == 0 {
		r.line("%s %s", r.success.Render(style.Check), "no problems")
		return
	}
	for _, d := range diagnostics {
		icon := r.muted.Render(style.Circle)
		switch d.Severity {
		case domain.SeverityError:
			icon = r.failure.Render(style.Cross)
		case domain.SeverityWarning:
			icon = r.caution.Render(style.Warning)
		}
		r.line("%s %s %s %s", icon, d.Code, d.Message, r.muted.Render("("+d.Source.String()+")"))
	}
}

func renderCompilerOptions(r *renderer, opts domain.CompilerOptions) {
	r.field("defines", fmt.Sprint(opts.Defines))
	r.field("optimize", formatFlag(opts.Optimize))
	r.field("warnAsError", formatFlag(opts.WarningsAsErrors))
	if opts.LanguageVersion != "" {
		r.field("language", opts.LanguageVersion)
	}
}

func formatFlag(v *bool) string {
	if v == nil {
		return "unset"
	}
	return fmt.Sprint(*v)
}
