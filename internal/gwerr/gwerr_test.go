package gwerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSendStatus(t *testing.T) {
	tests := []struct {
		status int
		want   int
		ok     bool
	}{
		{-1, 411, true},
		{-2, 412, true},
		{-3, 413, true},
		{-4, 414, true},
		{-22, 422, true},
		{-26, 426, true},
		{-6, 206, true},
		{-9, 209, true},
		{-18, 218, true},
		{-29, 229, true},
		{-5, 0, false},
		{0, 0, false},
		{1, 0, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			got, ok := MapSendStatus(tt.status)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGatewayErrorChain(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("parse: %w", New(NotificationConversion, "bad count", map[string]any{"xml": "<x/>"}).WithCause(cause))

	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, NotificationConversion, code)
	assert.True(t, Is(err, NotificationConversion))
	assert.False(t, Is(err, NotificationMissingField))
	assert.ErrorIs(t, err, cause)

	var ge *GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "<x/>", ge.Context["xml"])
	assert.Contains(t, err.Error(), "302")

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestFromHTTPStatus(t *testing.T) {
	assert.Equal(t, HTTPBadRequest, FromHTTPStatus(400))
	assert.Equal(t, HTTPUnauthorized, FromHTTPStatus(401))
	assert.Equal(t, HTTPForbidden, FromHTTPStatus(403))
	assert.Equal(t, HTTPNotFound, FromHTTPStatus(404))
	assert.Equal(t, GatewayServer, FromHTTPStatus(500))
}

func TestNewNilContext(t *testing.T) {
	e := New(SendFailed, "x", nil).With("k", "v")
	assert.Equal(t, "v", e.Context["k"])
}
