package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	dataDir    string
	logLevel   string
	jsonOutput bool
}

func newRootCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mhplugin",
		Short:         "mhplugin installs and tracks desktop widget plugins",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Configuration file (default <data-dir>/mhplugin.yaml)")
	cmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "Data root holding Plugin/, logs and the registry database")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "Emit a {code, data, message} JSON envelope")

	cmd.AddCommand(newInstallCmd(flags))
	cmd.AddCommand(newUninstallCmd(flags))
	cmd.AddCommand(newSyncCmd(flags))
	cmd.AddCommand(newListCmd(flags))
	cmd.AddCommand(newShowCmd(flags))
	cmd.AddCommand(newInspectCmd(flags))
	cmd.AddCommand(newSelfConfigCmd(flags))
	cmd.AddCommand(newRegistryCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newVersionCmd(flags))

	return cmd
}
