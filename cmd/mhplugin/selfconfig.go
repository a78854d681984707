package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newSelfConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "self-config",
		Short: "Read and edit a plugin's selfConfig.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <window-id> [key.path]",
		Short: "Print the whole document or the value at key.path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				keys := splitKeys(args, 1)
				value, err := s.app.SelfConfig.Get(args[0], keys)
				if err != nil {
					return newCommandError("read self config", describeTarget(args[0], "", keys), err, "Check the window id and key path.")
				}
				return printDocument(cmd, flags, documentResult{WindowID: args[0], Key: strings.Join(keys, "."), Value: value})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <window-id> <key.path> <json>",
		Short: "Set the value at key.path, creating intermediate objects",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				keys := splitKeys(args, 1)
				value := parseValue(args[2])
				get := func() (any, error) { return s.app.SelfConfig.Get(args[0], nil) }
				before := snapshot(flags, get)
				if err := s.app.SelfConfig.Set(args[0], keys, value); err != nil {
					return newCommandError("update self config", describeTarget(args[0], "", keys), err, "Intermediate keys must be objects; use a non-empty key path.")
				}
				result := documentResult{WindowID: args[0], Key: strings.Join(keys, "."), Value: value}
				return printChange(cmd, flags, "Updated", args[0]+" selfConfig.json", result, before, snapshot(flags, get))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <window-id> [key.path]",
		Short: "Delete the key at key.path, or the whole file when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				keys := splitKeys(args, 1)
				get := func() (any, error) { return s.app.SelfConfig.Get(args[0], nil) }
				before := snapshot(flags, get)
				if err := s.app.SelfConfig.Delete(args[0], keys); err != nil {
					return newCommandError("delete self config", describeTarget(args[0], "", keys), err, "Run 'mhplugin self-config get' to see the current document.")
				}
				result := documentResult{WindowID: args[0], Key: strings.Join(keys, ".")}
				return printChange(cmd, flags, "Deleted from", args[0]+" selfConfig.json", result, before, snapshot(flags, get))
			})
		},
	})

	return cmd
}

func describeTarget(windowID, column string, keys []string) string {
	target := windowID
	if column != "" {
		target += " " + column
	}
	if len(keys) > 0 {
		target += " key " + strings.Join(keys, ".")
	}
	return target
}

func printDocument(cmd *cobra.Command, flags *rootFlags, result documentResult) error {
	return respond(cmd.OutOrStdout(), flags, result, func(w io.Writer) error {
		return writeJSON(w, result.Value)
	})
}
