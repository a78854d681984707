package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/mhplugin/internal/config"
	infraconfig "github.com/alexisbeaulieu97/mhplugin/internal/infrastructure/config"
)

type configInitOptions struct {
	force bool
}

type configInitResult struct {
	Path string `json:"path"`
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the mhplugin configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newConfigInitCmd(flags))
	cmd.AddCommand(newConfigShowCmd(flags))

	return cmd
}

func newConfigInitCmd(flags *rootFlags) *cobra.Command {
	opts := &configInitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file populated with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, flags, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func runConfigInit(cmd *cobra.Command, flags *rootFlags, opts *configInitOptions) error {
	dataDir := flags.dataDir
	if dataDir == "" {
		dataDir = os.Getenv(config.EnvPrefix + "_DATA_DIR")
	}
	cfg := config.Defaults(dataDir)
	path := flags.configFile
	if path == "" {
		path = config.FilePath(cfg.DataDir)
	}

	if err := infraconfig.WriteFile(path, cfg, opts.force); err != nil {
		return newCommandError("initialize configuration", path, err, "Pass --force to overwrite the existing file.")
	}

	return respond(cmd.OutOrStdout(), flags, configInitResult{Path: path}, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s Wrote %s\n", successStyle.Render(checkMark(w)), path)
		return err
	})
}

func newConfigShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after files, environment and flags are merged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, false, func(s *session) error {
				return respond(cmd.OutOrStdout(), flags, s.cfg, func(w io.Writer) error {
					if s.file != "" {
						fmt.Fprintln(w, mutedStyle.Render("# loaded from "+s.file))
					}
					data, err := infraconfig.Encode(*s.cfg)
					if err != nil {
						return err
					}
					_, err = w.Write(data)
					return err
				})
			})
		},
	}
}
