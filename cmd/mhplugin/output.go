package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/pretty"
	"golang.org/x/term"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

const successMessage = "Operation succeeded"

type envelope struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func successEnvelope(data any) envelope {
	return envelope{Code: codeSuccess, Data: data, Message: successMessage}
}

func failureEnvelope(err error) envelope {
	return envelope{Code: envelopeCode(err), Data: nil, Message: envelopeMessage(err)}
}

func writeEnvelope(w io.Writer, env envelope) error {
	return writeJSON(w, env)
}

func writeJSON(w io.Writer, v any) error {
	data, err := indentJSON(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// indentJSON encodes v with two-space indentation and a trailing newline.
// Empty objects and arrays stay on one line.
func indentJSON(v any) ([]byte, error) {
	data, err := codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(data), nil
}

// respond prints data as an envelope in --json mode and calls human otherwise.
func respond(w io.Writer, flags *rootFlags, data any, human func(io.Writer) error) error {
	if flags.jsonOutput {
		return writeEnvelope(w, successEnvelope(data))
	}
	return human(w)
}

func checkMark(w io.Writer) string {
	if supportsUnicode(w) {
		return "✓"
	}
	return "[OK]"
}

func supportsUnicode(writer any) bool {
	if file, ok := writer.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}

func valueOrFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
