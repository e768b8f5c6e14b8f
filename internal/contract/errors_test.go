package contract

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsUnwrap(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name string
		err  error
		text string
	}{
		{"configuration", &ConfigurationError{Field: "output", Reason: "bad", Err: cause}, "invalid configuration for output: bad"},
		{"stream read", &StreamReadError{Cause: cause}, "reading change stream: cause"},
		{"filter", &FilterEvaluationError{Line: "a.ts", Cause: cause}, `filter failed on line "a.ts": cause`},
		{"resolution", &ResolutionError{EntryPoint: "/repo/index.ts", Cause: cause}, "resolving related tests from /repo/index.ts: cause"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.err.Error())
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}

func TestStreamReadErrorAs(t *testing.T) {
	var err error = &StreamReadError{Cause: io.ErrUnexpectedEOF}
	var target *StreamReadError
	assert.ErrorAs(t, err, &target)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
