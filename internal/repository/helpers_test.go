package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mustDate parses a YYYY-MM-DD string into the time.Time the driver hands
// back for DATE columns.
func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}
