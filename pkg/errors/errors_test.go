package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMatchesSentinelByCode(t *testing.T) {
	t.Parallel()

	err := Integrity("install", "archive contains illegal path", nil)

	require.True(t, stdErrors.Is(err, ErrIntegrity))
	require.False(t, stdErrors.Is(err, ErrValidation))
	require.Equal(t, CodeIntegrity, CodeOf(err))
}

func TestErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("disk full")
	err := Storage("extract", "write file failed", underlying)

	var tagged *Error
	require.ErrorAs(t, err, &tagged)
	require.Equal(t, "extract", tagged.Op)
	require.True(t, stdErrors.Is(err, underlying))
	require.Equal(t, "extract: write file failed: disk full", err.Error())
}

func TestCodeOfSurvivesWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("outer: %w", NotFound("uninstall", "plugin directory does not exist"))

	require.Equal(t, CodeNotFound, CodeOf(err))
	require.True(t, stdErrors.Is(err, ErrNotFound))
	require.Equal(t, CodeUnknown, CodeOf(stdErrors.New("plain")))
	require.Equal(t, Code(""), CodeOf(nil))
}

func TestInvalidIdentifierMentionsID(t *testing.T) {
	t.Parallel()

	err := InvalidIdentifier("resolve", "../etc")

	require.ErrorIs(t, err, ErrInvalidIdentifier)
	require.Contains(t, err.Error(), `"../etc"`)
}

func TestIsWithMessageTarget(t *testing.T) {
	t.Parallel()

	err := Validation("sync", "manifest windowId mismatch", nil)

	require.True(t, stdErrors.Is(err, &Error{Code: CodeValidation, Message: "manifest windowId mismatch"}))
	require.False(t, stdErrors.Is(err, &Error{Code: CodeValidation, Message: "other"}))
}
