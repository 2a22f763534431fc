// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - exit codes and error display for every command.
//
// Commands always return errors; Execute maps them to an exit code and
// prints them once, as text or as a JSON envelope.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/planforge/internal/config"
	"github.com/jeranaias/planforge/internal/plan"
	"github.com/jeranaias/planforge/internal/router"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNoProviderError indicates no provider in a chain can be called
	ExitNoProviderError = 4
	// ExitPipelineError indicates every content stage failed
	ExitPipelineError = 5
	// ExitPartialError indicates some documents of a batch failed
	ExitPartialError = 6
	// ExitInterrupted indicates the run was cancelled (128 + SIGINT)
	ExitInterrupted = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// ConfigError wraps a failure to load the configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// BatchError reports the ideas of a batch that produced no document.
type BatchError struct {
	Failed int
	Total  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d plans failed", e.Failed, e.Total)
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		validation *ValidationError
		cfgErr     *ConfigError
		cfgInvalid config.ValidateErrors
		unknown    *router.UnknownPresetError
		noProvider *router.NoAvailableProviderError
		allFailed  *plan.AllStagesFailedError
		batch      *BatchError
	)

	switch {
	case errors.Is(err, plan.ErrAborted), errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &validation), errors.Is(err, plan.ErrEmptyIdea):
		return ExitUsageError
	case errors.As(err, &cfgErr), errors.As(err, &cfgInvalid), errors.As(err, &unknown):
		return ExitConfigError
	case errors.As(err, &noProvider):
		return ExitNoProviderError
	case errors.As(err, &allFailed):
		return ExitPipelineError
	case errors.As(err, &batch):
		return ExitPartialError
	default:
		return ExitGeneralError
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError prints err once. In JSON mode the envelope goes to stdout so
// that scripts reading stdout always get a parseable document.
func DisplayError(stdout, stderr io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		_ = NewJSONErrorResponse("", err).Print(stdout)
		return
	}

	fmt.Fprintf(stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())

	var noProvider *router.NoAvailableProviderError
	if errors.As(err, &noProvider) {
		fmt.Fprintln(stderr, "Set an API key for one of the providers in the chain, or run 'planforge presets' to check availability.")
	}
}
