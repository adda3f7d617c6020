package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithErrorCode(t *testing.T) {
	assert.Nil(t, WithErrorCode(nil, "X"))

	base := errors.New("base")
	wrapped := WithErrorCode(base, "CODE123")
	assert.Equal(t, "base", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "CODE123", ErrorCode(wrapped))
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "usage sentinel", err: ErrUsage, want: errorCodeUsage},
		{name: "target sentinel", err: ErrInvalidTarget, want: errorCodeInvalidTarget},
		{name: "config sentinel", err: ErrInvalidConfig, want: errorCodeInvalidConfig},
		{name: "usage constructor", err: NewUsageError(2), want: errorCodeUsage},
		{name: "target constructor", err: NewInvalidTargetError("-sV", nil), want: errorCodeInvalidTarget},
		{name: "config constructor", err: NewConfigError(errors.New("bad")), want: errorCodeInvalidConfig},
		{name: "other", err: errors.New("random"), want: errorCodeRunFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(NewUsageError(0)))
	assert.Equal(t, 1, ExitCode(NewInvalidTargetError("x", nil)))
	assert.Equal(t, 1, ExitCode(NewConfigError(errors.New("bad"))))
}

func TestConstructorsWrapSentinels(t *testing.T) {
	err := NewUsageError(3)
	assert.ErrorIs(t, err, ErrUsage)
	assert.EqualError(t, err, "invalid arguments: expected exactly one target, got 3")

	err = NewNoTargetError("check-tools", 1)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Equal(t, errorCodeUsage, ErrorCode(err))
	assert.EqualError(t, err, "invalid arguments: --check-tools takes no target, got 1")

	reason := errors.New("must be an IP address or hostname")
	err = NewInvalidTargetError("-oN", reason)
	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.ErrorIs(t, err, reason)
	assert.EqualError(t, err, `invalid target "-oN": must be an IP address or hostname`)

	assert.Nil(t, NewConfigError(nil))
	assert.ErrorIs(t, NewConfigError(errors.New("x")), ErrInvalidConfig)
}

func TestSuggestions(t *testing.T) {
	assert.Nil(t, Suggestions(nil))
	assert.NotEmpty(t, Suggestions(NewUsageError(0)))
	assert.Contains(t, Suggestions(NewConfigError(errors.New("x")))[0], "hostrecon --show-config")
	assert.Contains(t, Suggestions(errors.New("x"))[0], "--debug")
}

func TestValidateTarget(t *testing.T) {
	valid := []string{"10.0.0.5", "192.168.1.1", "::1", "fe80::1", "localhost", "scanme.nmap.org", "host-01.lan"}
	for _, target := range valid {
		assert.NoError(t, ValidateTarget(target), target)
	}

	invalid := []string{"", "-sV", "--script=evil", "10.0.0.5 -oN x", "host_name", "a..b", "http://example.org"}
	for _, target := range invalid {
		err := ValidateTarget(target)
		assert.ErrorIs(t, err, ErrInvalidTarget, target)
		assert.Equal(t, errorCodeInvalidTarget, ErrorCode(err))
	}
}
