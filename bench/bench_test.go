package bench

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	results, err := Run(1)
	require.NoError(t, err)
	require.Len(t, results, 5)

	names := []string{"Setup", "KeyGen", "KeyUpdate", "Encrypt", "Decrypt"}
	for i, r := range results {
		require.Equal(t, names[i], r.Name)
		require.Equal(t, 1, r.Iterations)
		require.Greater(t, r.Total.Nanoseconds(), int64(0))
		require.Greater(t, r.PerOp.Nanoseconds(), int64(0))
	}

	var buf bytes.Buffer
	Fprint(&buf, results)
	require.Contains(t, buf.String(), "Decrypt")
}

func TestRunRejectsNonPositive(t *testing.T) {
	_, err := Run(0)
	require.Error(t, err)
	_, err = Run(-3)
	require.Error(t, err)
}
