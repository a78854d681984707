// Package diff renders line-oriented unified diffs of small text documents.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxDiffLines    = 2000
	truncateMessage = "... (diff truncated, exceeds 2,000 lines) ..."
)

// Line is one rendered diff line. Op is ' ', '-' or '+'.
type Line struct {
	Op   byte
	Text string
}

// Lines compares before and after line by line. It returns nil when they are equal.
func Lines(before, after []byte) []Line {
	if bytes.Equal(before, after) {
		return nil
	}

	dmp := diffmatchpatch.New()
	a, b, index := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), index)

	var out []Line
	for _, d := range diffs {
		op := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = '-'
		case diffmatchpatch.DiffInsert:
			op = '+'
		}
		for _, text := range splitLines(d.Text) {
			out = append(out, Line{Op: op, Text: text})
		}
	}
	return out
}

// Unified renders the diff of before and after with ---/+++ headers.
// Identical input yields "". Output beyond maxDiffLines is truncated.
func Unified(before, after []byte, beforeLabel, afterLabel string) string {
	lines := Lines(before, after)
	if lines == nil {
		return ""
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "--- %s\n+++ %s\n", beforeLabel, afterLabel)
	for i, line := range lines {
		if i == maxDiffLines {
			buf.WriteString(truncateMessage + "\n")
			break
		}
		buf.WriteByte(line.Op)
		buf.WriteString(line.Text)
		buf.WriteByte('\n')
	}
	return buf.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
