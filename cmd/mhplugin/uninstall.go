package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
	"github.com/alexisbeaulieu97/mhplugin/internal/syncer"
)

type uninstallOptions struct {
	force bool
	sync  bool
}

type uninstallResult struct {
	WindowID string         `json:"windowId"`
	Sync     *syncer.Report `json:"sync,omitempty"`
}

func newUninstallCmd(flags *rootFlags) *cobra.Command {
	opts := &uninstallOptions{}

	cmd := &cobra.Command{
		Use:     "uninstall <window-id>",
		Short:   "Remove an installed plugin directory",
		Aliases: []string{"remove", "rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				return runUninstall(cmd, s, flags, args[0], opts)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Uninstall without confirmation")
	cmd.Flags().BoolVar(&opts.sync, "sync", true, "Drop the registry row by syncing after uninstall")

	return cmd
}

func runUninstall(cmd *cobra.Command, s *session, flags *rootFlags, windowID string, opts *uninstallOptions) error {
	if err := plugin.ValidateWindowID(windowID); err != nil {
		return newCommandError("uninstall", fmt.Sprintf("checking plugin id %q", windowID), err, "Window ids may contain only letters, digits, '-' and '_'.")
	}
	if !opts.force {
		confirmed, err := confirmUninstall(cmd, windowID)
		if err != nil {
			return err
		}
		if !confirmed {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	if err := s.app.Installer.Uninstall(s.ctx, windowID); err != nil {
		return newCommandError("uninstall", fmt.Sprintf("removing plugin %q", windowID), err, "Run 'mhplugin list' to view installed plugins.")
	}

	result := uninstallResult{WindowID: windowID}
	if opts.sync {
		report, err := s.app.Syncer.Sync(s.ctx)
		if err != nil {
			return newCommandError("uninstall", "syncing the plugin registry", err, "Run 'mhplugin sync' once the registry is reachable.")
		}
		result.Sync = report
	}

	return respond(cmd.OutOrStdout(), flags, result, func(w io.Writer) error {
		fmt.Fprintf(w, "%s Uninstalled plugin '%s'\n", successStyle.Render(checkMark(w)), windowID)
		if result.Sync == nil {
			fmt.Fprintln(w, mutedStyle.Render("\nThe registry row is kept until the next 'mhplugin sync'."))
		}
		return nil
	})
}

func confirmUninstall(cmd *cobra.Command, windowID string) (bool, error) {
	if !isTerminal(cmd.InOrStdin()) {
		return false, newCommandError("uninstall", "prompting for confirmation", errors.New("not a terminal"), "Use --force when running in non-interactive environments.")
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Uninstall plugin '%s' and delete its files? [y/N]: ", windowID)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false, scanner.Err()
	}

	answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}

func isTerminal(reader any) bool {
	if file, ok := reader.(*os.File); ok {
		return termIsTerminal(int(file.Fd()))
	}
	return false
}

var termIsTerminal = func(fd int) bool {
	return term.IsTerminal(fd)
}
