package main

import (
	"strings"

	"github.com/alexisbeaulieu97/mhplugin/internal/keypath"
)

// parseValue decodes raw as JSON. Text that is not valid JSON is kept as a
// plain string so `set id title Hello` works without quoting.
func parseValue(raw string) any {
	var value any
	if err := codec.UnmarshalFromString(raw, &value); err != nil {
		return raw
	}
	return value
}

// splitKeys turns an optional dotted key argument into a key path.
func splitKeys(args []string, index int) []string {
	if len(args) <= index {
		return nil
	}
	return keypath.Split(strings.TrimSpace(args[index]))
}

type documentResult struct {
	WindowID string `json:"windowId"`
	Column   string `json:"column,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    any    `json:"value"`
}
