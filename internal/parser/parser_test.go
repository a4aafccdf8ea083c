package parser

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/iplan/cellact/internal/phone"
	"github.com/stretchr/testify/require"
)

func jerusalem(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)
	return loc
}

func testOptions(t *testing.T) Options {
	loc := jerusalem(t)
	return Options{
		Location: loc,
		Plan:     phone.Israel,
		Now:      func() time.Time { return time.Date(2012, 3, 13, 10, 16, 56, 0, loc) },
	}
}
