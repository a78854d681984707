package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
)

func newInspectCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <package.zip>",
		Short: "Read a local plugin package's manifest without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				return runInspect(cmd, s, flags, args[0])
			})
		},
	}

	return cmd
}

func runInspect(cmd *cobra.Command, s *session, flags *rootFlags, path string) error {
	info, err := s.app.Installer.Analyze(s.ctx, path)
	if err != nil {
		return newCommandError("inspect", fmt.Sprintf("reading package %s", path), err, "Make sure the file is a plugin .zip containing index.html and mhPlugin.json.")
	}

	return respond(cmd.OutOrStdout(), flags, info, func(w io.Writer) error {
		renderPackage(w, info)
		return nil
	})
}

func renderPackage(w io.Writer, info *plugin.PackageInfo) {
	p := info.Plugin
	fmt.Fprintln(w, titleStyle.Render(valueOrFallback(p.Name, p.WindowID)))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Window ID:"), valueOrFallback(p.WindowID, "(missing)"))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Package size:"), humanize.IBytes(uint64(info.Size)))
	if p.Version != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Version:"), p.Version)
	}
	if p.Author != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Author:"), p.Author)
	}
	if p.Description != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Description:"), p.Description)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Tags:"), strings.Join(p.Tags, ", "))
	}
	if len(p.Size) == 2 {
		fmt.Fprintf(w, "%s %dx%d\n", labelStyle.Render("Window size:"), p.Size[0], p.Size[1])
	}
	if len(info.Issues) > 0 {
		fmt.Fprintln(w, warningStyle.Render("\nManifest issues:"))
		for _, issue := range info.Issues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	}
}
