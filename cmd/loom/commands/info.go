package commands

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [path]",
		Short: "Show project name, frameworks, configurations and search paths",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.projectPath(args)
			info, ok, err := c.app.ProjectInfo(cmd.Context(), path)
			if err != nil {
				return err
			}
			if !ok {
				return zerr.With(ErrProjectAbsent, "path", path)
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), info)
			}

			frameworks := make([]string, 0, len(info.Frameworks))
			for _, fw := range info.Frameworks {
				frameworks = append(frameworks, fw.String())
			}
			settings := info.SettingsPath
			if settings == "" {
				settings = "(defaults)"
			}

			r := newRenderer(cmd.OutOrStdout())
			r.section(info.Name)
			r.field("directory", info.Directory)
			r.field("settings", settings)
			r.field("frameworks", strings.Join(frameworks, ", "))
			r.field("configurations", strings.Join(info.Configurations, ", "))
			r.field("search paths", strings.Join(info.SearchPaths, ", "))

			names := make([]string, 0, len(info.Commands))
			for name := range info.Commands {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				r.field("command "+name, info.Commands[name])
			}
			return nil
		},
	}
}

func (c *CLI) newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects of the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dirs, err := c.app.Projects(cmd.Context(), c.workspace)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), dirs)
			}
			r := newRenderer(cmd.OutOrStdout())
			r.section("projects")
			r.list(dirs)
			return nil
		},
	}
}
