// Package errors provides structured error handling for Paygate.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes.
const (
	ExitSuccess = 0 // Successful execution
	ExitGeneral = 1 // General/unknown error
	ExitInput   = 2 // Invalid input
	ExitConfig  = 3 // Invalid or missing configuration
	ExitRPC     = 4 // Node RPC failure
)

// PaygateError is the structured error type for Paygate.
type PaygateError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *PaygateError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PaygateError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for PaygateError.
func (e *PaygateError) Is(target error) bool {
	var t *PaygateError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &PaygateError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &PaygateError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	// Config-specific errors.
	ErrConfigNotFound = &PaygateError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitConfig,
	}

	ErrConfigInvalid = &PaygateError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitConfig,
	}

	ErrEndpointScheme = &PaygateError{
		Code:     "ENDPOINT_SCHEME_UNSUPPORTED",
		Message:  "unsupported RPC endpoint scheme",
		ExitCode: ExitConfig,
	}

	ErrAddressRequired = &PaygateError{
		Code:     "ADDRESS_REQUIRED",
		Message:  "account address is required",
		ExitCode: ExitConfig,
	}

	// Chain-specific errors.
	ErrInvalidAddress = &PaygateError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrInvalidChecksum = &PaygateError{
		Code:     "INVALID_CHECKSUM",
		Message:  "invalid address checksum",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &PaygateError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrInvalidGasPrice = &PaygateError{
		Code:     "INVALID_GAS_PRICE",
		Message:  "invalid gas price",
		ExitCode: ExitInput,
	}

	ErrRPCFailure = &PaygateError{
		Code:     "RPC_FAILURE",
		Message:  "node RPC request failed",
		ExitCode: ExitRPC,
	}

	ErrTxReverted = &PaygateError{
		Code:     "TX_REVERTED",
		Message:  "transaction reverted on chain",
		ExitCode: ExitRPC,
	}

	// Contract dispatch errors.
	ErrUnknownMethod = &PaygateError{
		Code:     "UNKNOWN_METHOD",
		Message:  "method not declared in contract ABI",
		ExitCode: ExitInput,
	}

	ErrUnknownEvent = &PaygateError{
		Code:     "UNKNOWN_EVENT",
		Message:  "event not declared in contract ABI",
		ExitCode: ExitInput,
	}

	ErrNotReadable = &PaygateError{
		Code:     "METHOD_NOT_READABLE",
		Message:  "method is state-changing, use Send",
		ExitCode: ExitInput,
	}

	ErrNotWritable = &PaygateError{
		Code:     "METHOD_NOT_WRITABLE",
		Message:  "method is read-only, use Call",
		ExitCode: ExitInput,
	}

	ErrSinkRequired = &PaygateError{
		Code:     "EVENT_SINK_REQUIRED",
		Message:  "event subscription requires a non-nil sink",
		ExitCode: ExitInput,
	}

	// Internal invariant violations. These indicate a bug in the
	// coordinator, not a caller mistake.
	ErrLedgerEntryMissing = &PaygateError{
		Code:     "LEDGER_ENTRY_MISSING",
		Message:  "ledger update for unknown intent id",
		ExitCode: ExitGeneral,
	}
)

// New creates a new PaygateError with the given code and message.
func New(code, message string) *PaygateError {
	return &PaygateError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var pe *PaygateError
	if errors.As(err, &pe) {
		return &PaygateError{
			Code:       pe.Code,
			Message:    fmt.Sprintf("%s: %s", msg, pe.Message),
			Details:    pe.Details,
			Suggestion: pe.Suggestion,
			Cause:      err,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PaygateError{
		Code:     ErrGeneral.Code,
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause attaches an underlying cause to an error, keeping the
// code, details, suggestion and exit code of structured errors. Meant
// for decorating a sentinel with the error that triggered it.
func WithCause(err, cause error) error {
	if err == nil {
		return nil
	}

	var pe *PaygateError
	if errors.As(err, &pe) {
		return &PaygateError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    pe.Details,
			Suggestion: pe.Suggestion,
			Cause:      cause,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PaygateError{
		Code:     ErrGeneral.Code,
		Message:  err.Error(),
		Cause:    cause,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var pe *PaygateError
	if errors.As(err, &pe) {
		return &PaygateError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    details,
			Suggestion: pe.Suggestion,
			Cause:      pe.Cause,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PaygateError{
		Code:     ErrGeneral.Code,
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var pe *PaygateError
	if errors.As(err, &pe) {
		return &PaygateError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    pe.Details,
			Suggestion: suggestion,
			Cause:      pe.Cause,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PaygateError{
		Code:       ErrGeneral.Code,
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the exit code for an error.
// nil errors return ExitSuccess; unstructured errors return ExitGeneral.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var pe *PaygateError
	if errors.As(err, &pe) {
		return pe.ExitCode
	}
	return ExitGeneral
}
