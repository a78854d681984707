package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
)

type pluginSummary struct {
	WindowID string `json:"windowId"`
	Title    string `json:"title"`
	Version  string `json:"version"`
	URL      string `json:"url"`
}

type listPayload struct {
	Count   int             `json:"count"`
	Plugins []pluginSummary `json:"plugins"`
}

func newListCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List plugins recorded in the registry",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				return runList(cmd, s, flags)
			})
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, s *session, flags *rootFlags) error {
	rows, err := s.app.Store.List(s.ctx)
	if err != nil {
		return newCommandError("list", "reading the plugin registry", err, "Check the registry connection and retry.")
	}

	payload := listPayload{Count: len(rows), Plugins: make([]pluginSummary, len(rows))}
	for i, row := range rows {
		payload.Plugins[i] = summarize(row)
	}

	return respond(cmd.OutOrStdout(), flags, payload, func(w io.Writer) error {
		if len(rows) == 0 {
			return renderEmptyList(w)
		}
		return renderListTable(w, payload.Plugins)
	})
}

func summarize(row ports.Row) pluginSummary {
	data := gjson.ParseBytes(row.Data)
	return pluginSummary{
		WindowID: row.WindowID,
		Title:    data.Get("title").String(),
		Version:  data.Get("version").String(),
		URL:      data.Get("url").String(),
	}
}

func renderEmptyList(w io.Writer) error {
	fmt.Fprintln(w, "No plugins registered yet.")
	fmt.Fprintln(w, "\nRun 'mhplugin install <url|path>' to add your first plugin.")
	return nil
}

func renderListTable(w io.Writer, plugins []pluginSummary) error {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(writer, "ID\tTITLE\tVERSION\tURL")
	for _, p := range plugins {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			p.WindowID,
			valueOrFallback(p.Title, "(no title)"),
			valueOrFallback(p.Version, "-"),
			p.URL,
		)
	}

	return writer.Flush()
}
