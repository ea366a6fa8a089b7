package stockout

import (
	"testing"
	"time"

	"asset-tracker/internal/request"

	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := request.ParseDate(s)
	require.NoError(t, err)
	return d
}
