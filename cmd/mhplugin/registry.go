package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newRegistryCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registry",
		Short:   "Manage plugin registry records",
		Aliases: []string{"reg"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newRegistryConfigCmd(flags))

	return cmd
}

func newRegistryConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and edit the info and config documents of a registry row",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <window-id> <info|config|data> [key.path]",
		Short: "Print a column document or the value at key.path",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				keys := splitKeys(args, 2)
				value, err := s.app.Registry.Get(s.ctx, args[0], args[1], keys)
				if err != nil {
					return newCommandError("read registry config", describeTarget(args[0], args[1], keys), err, "Run 'mhplugin show' to see the stored documents.")
				}
				return printDocument(cmd, flags, documentResult{WindowID: args[0], Column: args[1], Key: strings.Join(keys, "."), Value: value})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <window-id> <info|config> [key.path] <json>",
		Short: "Set the value at key.path, or replace the document when no key is given",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				var keys []string
				if len(args) == 4 {
					keys = splitKeys(args, 2)
				}
				value := parseValue(args[len(args)-1])
				get := func() (any, error) { return s.app.Registry.Get(s.ctx, args[0], args[1], nil) }
				before := snapshot(flags, get)
				if err := s.app.Registry.Set(s.ctx, args[0], args[1], keys, value); err != nil {
					return newCommandError("update registry config", describeTarget(args[0], args[1], keys), err, "Only info and config are editable; a whole-document value must be a JSON object.")
				}
				result := documentResult{WindowID: args[0], Column: args[1], Key: strings.Join(keys, "."), Value: value}
				return printChange(cmd, flags, "Updated", args[0]+" "+args[1], result, before, snapshot(flags, get))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <window-id> <info|config> [key.path]",
		Short: "Delete the key at key.path, or reset the document to {} when omitted",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				keys := splitKeys(args, 2)
				get := func() (any, error) { return s.app.Registry.Get(s.ctx, args[0], args[1], nil) }
				before := snapshot(flags, get)
				if err := s.app.Registry.Delete(s.ctx, args[0], args[1], keys); err != nil {
					return newCommandError("delete registry config", describeTarget(args[0], args[1], keys), err, "Run 'mhplugin registry config get' to see the current document.")
				}
				result := documentResult{WindowID: args[0], Column: args[1], Key: strings.Join(keys, ".")}
				return printChange(cmd, flags, "Deleted from", args[0]+" "+args[1], result, before, snapshot(flags, get))
			})
		},
	})

	return cmd
}
