package util

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDSortsByTimeAndOrder(t *testing.T) {
	at := time.Date(2012, 3, 13, 8, 16, 56, 0, time.UTC)

	a := NewID(at)
	b := NewID(at)
	c := NewID(at.Add(time.Second))

	assert.Less(t, a, b)
	assert.Less(t, b, c)

	id, err := ulid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, at, ulid.Time(id.Time()).UTC())
}
