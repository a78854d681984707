package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

func TestParseValue(t *testing.T) {
	assert.Equal(t, float64(7), parseValue("7"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "dark", parseValue(`"dark"`))
	assert.Equal(t, "Wake up", parseValue("Wake up"))
	assert.Equal(t, map[string]any{"a": float64(1)}, parseValue(`{"a":1}`))
	assert.Nil(t, parseValue("null"))
}

func TestSplitKeys(t *testing.T) {
	assert.Nil(t, splitKeys([]string{"clock"}, 1))
	assert.Nil(t, splitKeys([]string{"clock", " "}, 1))
	assert.Equal(t, []string{"a", "b"}, splitKeys([]string{"clock", "a.b"}, 1))
}

func TestEnvelopeCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, codeSuccess},
		{"validation", apperrors.Validation("op", "bad", nil), codeParams},
		{"identifier", apperrors.InvalidIdentifier("op", "a/b"), codeParams},
		{"config", apperrors.Config("op", "bad", nil), codeConfig},
		{"usage", newUsageError("missing %s", "--id"), codeParams},
		{"storage", apperrors.Storage("op", "disk", nil), codeSystem},
		{"plain", errors.New("boom"), codeSystem},
		{"wrapped", newCommandError("install", "ctx", apperrors.Validation("op", "bad", nil), "hint"), codeParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, envelopeCode(tt.err))
		})
	}
}

func TestEnvelopeMessageDropsSuggestion(t *testing.T) {
	err := newCommandError("install", "ctx", errors.New("root cause"), "try again")
	assert.Equal(t, "root cause", envelopeMessage(err))
	assert.Contains(t, err.Error(), "Suggestion: try again")
}

func TestSnapshotKeepsEmptyObjectsCompact(t *testing.T) {
	empty := snapshot(&rootFlags{}, func() (any, error) { return map[string]any{}, nil })
	assert.Equal(t, "{}\n", string(empty))

	filled := snapshot(&rootFlags{}, func() (any, error) {
		return map[string]any{"pinned": true, "tags": map[string]any{}}, nil
	})
	assert.Equal(t, "{\n  \"pinned\": true,\n  \"tags\": {}\n}\n", string(filled))

	assert.Nil(t, snapshot(&rootFlags{jsonOutput: true}, func() (any, error) { return map[string]any{}, nil }))
	assert.Nil(t, snapshot(&rootFlags{}, func() (any, error) { return nil, errors.New("missing") }))
}
