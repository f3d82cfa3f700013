package domainerrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	plain := New(CodeNotFound, "judge not found")
	assert.Equal(t, "not_found: judge not found", plain.Error())

	wrapped := Wrap(errors.New("sql: no rows"), CodeNotFound, "judge not found")
	assert.Equal(t, "not_found: judge not found: sql: no rows", wrapped.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "anything"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(New(CodeConflict, "stale")))

	// The outermost code wins.
	inner := New(CodeNotFound, "row missing")
	outer := Wrap(inner, CodeInternal, "load judge")
	assert.Equal(t, CodeInternal, CodeOf(outer))

	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
}

func TestHasCodeWalksTheChain(t *testing.T) {
	inner := New(CodeSeatConflict, "court full")
	outer := Wrap(inner, CodeInvalidInput, "cannot confirm match")

	assert.True(t, HasCode(outer, CodeInvalidInput))
	assert.True(t, HasCode(outer, CodeSeatConflict))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(errors.New("uncoded"), CodeInternal))
}

func TestUnwrapPreservesSentinels(t *testing.T) {
	cause := errors.New("driver closed")
	wrapped := Wrap(cause, CodeUnavailable, "redis publish")
	assert.ErrorIs(t, wrapped, cause)
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeNoMatch, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeAmbiguousMatch, http.StatusConflict},
		{CodeOverlapViolation, http.StatusConflict},
		{CodeJurisdictionViolation, http.StatusConflict},
		{CodeSeatConflict, http.StatusConflict},
		{CodeRetiredJudge, http.StatusConflict},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeUpstreamData, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToHTTPStatus(tt.code), string(tt.code))
	}
}
