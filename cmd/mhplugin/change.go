package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/mhplugin/pkg/diff"
)

// snapshot renders the document returned by get for diffing. Failures yield
// nil so a missing document diffs as empty.
func snapshot(flags *rootFlags, get func() (any, error)) []byte {
	if flags.jsonOutput {
		return nil
	}
	doc, err := get()
	if err != nil {
		return nil
	}
	data, err := indentJSON(doc)
	if err != nil {
		return nil
	}
	return data
}

// printChange reports an edit: the result envelope in --json mode, otherwise
// a coloured diff between the before and after snapshots.
func printChange(cmd *cobra.Command, flags *rootFlags, verb, label string, result documentResult, before, after []byte) error {
	return respond(cmd.OutOrStdout(), flags, result, func(w io.Writer) error {
		fmt.Fprintf(w, "%s %s %s\n", successStyle.Render(checkMark(w)), verb, label)
		lines := diff.Lines(before, after)
		if lines == nil {
			fmt.Fprintln(w, mutedStyle.Render("(no changes)"))
			return nil
		}
		for _, line := range lines {
			text := string(line.Op) + line.Text
			switch line.Op {
			case '+':
				text = successStyle.Render(text)
			case '-':
				text = errorStyle.Render(text)
			}
			fmt.Fprintln(w, text)
		}
		return nil
	})
}
