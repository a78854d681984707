package main

import (
	"errors"
	"fmt"

	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

func newCommandError(operation, context string, cause error, suggestion string) error {
	return &commandError{operation: operation, context: context, cause: cause, suggestion: suggestion}
}

type commandError struct {
	operation  string
	context    string
	cause      error
	suggestion string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("Failed to %s: %s\n\nError: %v\n\nSuggestion: %s", e.operation, e.context, e.cause, e.suggestion)
}

func (e *commandError) Unwrap() error {
	return e.cause
}

// Envelope codes shared with the desktop host.
const (
	codeSuccess = 0
	codeSystem  = 1001
	codeConfig  = 1002
	codeParams  = 1003
)

// envelopeCode classifies err for the JSON envelope.
func envelopeCode(err error) int {
	switch apperrors.CodeOf(err) {
	case "":
		return codeSuccess
	case apperrors.CodeValidation, apperrors.CodeInvalidIdentifier:
		return codeParams
	case apperrors.CodeConfig:
		return codeConfig
	}
	var usage *usageError
	if errors.As(err, &usage) {
		return codeParams
	}
	return codeSystem
}

// envelopeMessage drops the suggestion decoration added for terminals.
func envelopeMessage(err error) string {
	var cmdErr *commandError
	if errors.As(err, &cmdErr) && cmdErr.cause != nil {
		return cmdErr.cause.Error()
	}
	return err.Error()
}

// usageError marks malformed command-line input that never reached a service.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}
