package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeAlignmentGap, "offset 17 is not a token boundary")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeAlignmentGap, err.Code)
	assert.Contains(t, err.Error(), "ALN_001")
	assert.Contains(t, err.Error(), "offset 17 is not a token boundary")
	assert.NotEmpty(t, err.Stack)
}

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrCodeInternal, "whatever"))
	})

	t.Run("wraps and unwraps", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := Wrap(cause, ErrCodeAnnotatorFailed, "annotate request failed")
		require.NotNil(t, err)
		assert.Equal(t, ErrCodeAnnotatorFailed, err.Code)
		assert.True(t, stderrors.Is(err, cause))
	})

	t.Run("unknown code preserves wrapped code", func(t *testing.T) {
		inner := New(ErrCodeParseFailure, "missing gloss")
		err := Wrap(inner, CodeUnknown, "sentence 3")
		assert.Equal(t, ErrCodeParseFailure, err.Code)
	})
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeUnknownToken, "lookup failed").WithDetail("index=42")
	assert.Contains(t, err.Error(), "index=42")

	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("ignored"))
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeUnsupportedQuantityKind, "type=list")
	wrapped := fmt.Errorf("processing quantity 2: %w", inner)

	assert.True(t, IsCode(wrapped, ErrCodeUnsupportedQuantityKind))
	assert.False(t, IsCode(wrapped, ErrCodeAlignmentGap))
	assert.False(t, IsCode(nil, ErrCodeAlignmentGap))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeParseFailure, GetCode(New(ErrCodeParseFailure, "x")))
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"alignment gap", New(ErrCodeAlignmentGap, "x"), true},
		{"parse failure", New(ErrCodeParseFailure, "x"), true},
		{"unsupported quantity", New(ErrCodeUnsupportedQuantityKind, "x"), true},
		{"quantified without token", New(ErrCodeQuantifiedNoToken, "x"), true},
		{"pattern config", New(ErrCodeInvalidPatternConfig, "x"), false},
		{"internal", Internal("x"), false},
		{"plain error", stderrors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecoverable(tt.err))
		})
	}
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusForCode(ErrCodeAlignmentGap))
	assert.Equal(t, http.StatusBadGateway, HTTPStatusForCode(ErrCodeDetectorFailed))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("NOPE_999")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "ALN", ModuleForCode(ErrCodeAlignmentGap))
	assert.Equal(t, "PTN", ModuleForCode(ErrCodeInvalidPatternConfig))
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
}
