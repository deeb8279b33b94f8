package exitcodes

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "no error", err: nil, want: Success},
		{name: "test failure", err: NewTestFailureError("2 failed"), want: TestFailure},
		{name: "wrapped test failure", err: fmt.Errorf("run: %w", NewTestFailureError("x")), want: TestFailure},
		{name: "runtime error", err: NewRuntimeError(errors.New("db down")), want: RuntimeErr},
		{name: "plain error", err: errors.New("boom"), want: RuntimeErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestRuntimeError_Unwrap(t *testing.T) {
	cause := errors.New("db down")
	err := NewRuntimeError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "runtime error: db down", err.Error())
}
