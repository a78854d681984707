package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func newVersionCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{Version: version, Commit: commit, Date: date}
			return respond(cmd.OutOrStdout(), flags, info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "mhplugin %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
				return err
			})
		},
	}

	return cmd
}
