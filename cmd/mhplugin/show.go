package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
)

func newShowCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <window-id>",
		Short: "Show the registry record of a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				return runShow(cmd, s, flags, args[0])
			})
		},
	}

	return cmd
}

func runShow(cmd *cobra.Command, s *session, flags *rootFlags, windowID string) error {
	row, err := s.app.Store.Get(s.ctx, windowID)
	if err != nil {
		return newCommandError("show", fmt.Sprintf("looking up plugin %q", windowID), err, "Run 'mhplugin list' to view registered plugins.")
	}

	return respond(cmd.OutOrStdout(), flags, row, func(w io.Writer) error {
		renderRow(w, row)
		return nil
	})
}

func renderRow(w io.Writer, row *ports.Row) {
	summary := summarize(*row)
	fmt.Fprintln(w, titleStyle.Render(valueOrFallback(summary.Title, row.WindowID)))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Window ID:"), row.WindowID)
	if summary.Version != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Version:"), summary.Version)
	}
	if summary.URL != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("URL:"), summary.URL)
	}
	for _, col := range []string{ports.ColumnInfo, ports.ColumnConfig, ports.ColumnData} {
		raw, _ := row.Column(col)
		fmt.Fprintf(w, "\n%s\n%s", labelStyle.Render(col+":"), renderDocument(raw))
	}
}

func renderDocument(raw []byte) string {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return mutedStyle.Render("{}") + "\n"
	}
	return string(pretty.Pretty(raw))
}
