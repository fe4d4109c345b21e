package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPaygateError_Error verifies message formatting with details and
// cause.
func TestPaygateError_Error(t *testing.T) {
	t.Parallel()

	e := &PaygateError{Code: "X", Message: "something broke"}
	assert.Equal(t, "something broke", e.Error())

	// Details render sorted by key.
	e.Details = map[string]string{"b": "2", "a": "1"}
	assert.Equal(t, "something broke (a: 1) (b: 2)", e.Error())

	e.Cause = stderrors.New("root cause")
	assert.Equal(t, "something broke (a: 1) (b: 2): root cause", e.Error())
}

// TestPaygateError_Is verifies code-based matching.
func TestPaygateError_Is(t *testing.T) {
	t.Parallel()

	wrapped := WithDetails(ErrInvalidAddress, map[string]string{"address": "0x1"})
	assert.ErrorIs(t, wrapped, ErrInvalidAddress)
	assert.NotErrorIs(t, wrapped, ErrInvalidAmount)

	// Matching survives stdlib wrapping too.
	deep := fmt.Errorf("outer: %w", wrapped)
	assert.ErrorIs(t, deep, ErrInvalidAddress)
}

// TestWrap verifies context prefixing and cause preservation.
func TestWrap(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Wrap(nil, "ignored"))

	err := Wrap(stderrors.New("dial tcp: refused"), "connecting to %s", "localhost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to localhost")
	assert.Contains(t, err.Error(), "dial tcp: refused")
	assert.Equal(t, ExitGeneral, ExitCode(err))

	// Wrapping a structured error keeps its code and exit code.
	err = Wrap(ErrConfigNotFound, "loading config")
	assert.ErrorIs(t, err, ErrConfigNotFound)
	assert.Equal(t, ExitConfig, ExitCode(err))
	assert.Contains(t, err.Error(), "loading config: configuration file not found")
}

// TestWithDetailsAndSuggestion verifies decoration without mutating
// the sentinels.
func TestWithDetailsAndSuggestion(t *testing.T) {
	t.Parallel()

	err := WithDetails(ErrInvalidAmount, map[string]string{"amount": "abc"})
	err = WithSuggestion(err, "amounts are decimal ETH, like 0.5")

	var pe *PaygateError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "abc", pe.Details["amount"])
	assert.Equal(t, "amounts are decimal ETH, like 0.5", pe.Suggestion)

	// The sentinel itself stays clean.
	assert.Empty(t, ErrInvalidAmount.Details)
	assert.Empty(t, ErrInvalidAmount.Suggestion)

	assert.NoError(t, WithDetails(nil, nil))
	assert.NoError(t, WithSuggestion(nil, "s"))
}

// TestWithCause verifies cause attachment keeps the sentinel's code
// and exit code.
func TestWithCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("connection refused")
	err := WithCause(ErrRPCFailure, cause)

	assert.ErrorIs(t, err, ErrRPCFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitRPC, ExitCode(err))
	assert.Contains(t, err.Error(), "connection refused")

	// The sentinel itself stays clean.
	assert.Nil(t, ErrRPCFailure.Cause)

	assert.NoError(t, WithCause(nil, cause))
}

// TestExitCode verifies exit code resolution for the error classes.
func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", stderrors.New("boom"), ExitGeneral},
		{"input error", ErrInvalidInput, ExitInput},
		{"config error", ErrConfigInvalid, ExitConfig},
		{"rpc error", ErrTxReverted, ExitRPC},
		{"wrapped rpc error", fmt.Errorf("send: %w", ErrRPCFailure), ExitRPC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

// TestNew verifies ad hoc error construction.
func TestNew(t *testing.T) {
	t.Parallel()

	e := New("CUSTOM", "custom failure")
	assert.Equal(t, "CUSTOM", e.Code)
	assert.Equal(t, ExitGeneral, e.ExitCode)
	assert.Equal(t, "custom failure", e.Error())
}
