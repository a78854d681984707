package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/mhplugin/internal/syncer"
)

type installOptions struct {
	windowID string
	sync     bool
}

type installResult struct {
	WindowID string         `json:"windowId"`
	Source   string         `json:"source"`
	Dir      string         `json:"dir"`
	Sync     *syncer.Report `json:"sync,omitempty"`
}

func newInstallCmd(flags *rootFlags) *cobra.Command {
	opts := &installOptions{}

	cmd := &cobra.Command{
		Use:   "install <url|path>",
		Short: "Install a plugin package from a URL or a local .zip file",
		Long: "Install a plugin package. Remote packages are downloaded over HTTP(S); anything else is read as a local file.\n" +
			"When --id is omitted for a local package, the windowId declared in its mhPlugin.json is used.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				return runInstall(cmd, s, flags, args[0], opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.windowID, "id", "", "Window id to install the plugin as")
	cmd.Flags().BoolVar(&opts.sync, "sync", true, "Register the plugin by syncing after install")

	return cmd
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func runInstall(cmd *cobra.Command, s *session, flags *rootFlags, source string, opts *installOptions) error {
	windowID := strings.TrimSpace(opts.windowID)
	remote := isRemote(source)

	if windowID == "" {
		if remote {
			return newCommandError("install", "resolving window id", newUsageError("--id is required for remote packages"), "Pass --id <window-id>.")
		}
		info, err := s.app.Installer.Analyze(s.ctx, source)
		if err != nil {
			return newCommandError("install", fmt.Sprintf("reading manifest from %s", source), err, "Pass --id explicitly or check the package with 'mhplugin inspect'.")
		}
		windowID = info.Plugin.WindowID
	}

	var err error
	if remote {
		err = s.app.Installer.InstallFromURL(s.ctx, source, windowID)
	} else {
		err = s.app.Installer.InstallFromLocal(s.ctx, source, windowID)
	}
	if err != nil {
		return newCommandError("install", fmt.Sprintf("installing %q from %s", windowID, source), err, "Run 'mhplugin inspect' on the package to see what is wrong with it.")
	}

	dir, _ := s.app.Resolver.Resolve(windowID)
	result := installResult{WindowID: windowID, Source: source, Dir: dir}

	if opts.sync {
		report, err := s.app.Syncer.Sync(s.ctx)
		if err != nil {
			return newCommandError("install", "syncing the plugin registry", err, "Run 'mhplugin sync' once the registry is reachable.")
		}
		result.Sync = report
	}

	return respond(cmd.OutOrStdout(), flags, result, func(w io.Writer) error {
		fmt.Fprintf(w, "%s Installed plugin '%s'\n", successStyle.Render(checkMark(w)), windowID)
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Location:"), dir)
		if result.Sync != nil {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Sync:"), result.Sync.String())
		}
		return nil
	})
}
