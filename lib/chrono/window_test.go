package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("2024-01-01", "2025-10-31")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), w.Start)
	require.Equal(t, time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC), w.End)

	_, err = ParseWindow("2024-01-01", "2023-01-01")
	require.Error(t, err)

	_, err = ParseWindow("01/01/2024", "2024-02-01")
	require.Error(t, err)
}

func TestContainsDay(t *testing.T) {
	w, err := ParseWindow("2024-01-01", "2024-01-03")
	require.NoError(t, err)

	cases := []struct {
		day    string
		inside bool
	}{
		{"2023-12-31", false},
		{"2024-01-01", true},
		{"2024-01-02", true},
		{"2024-01-03", true},
		{"2024-01-04", false},
		{"not-a-date", false},
	}
	for _, test := range cases {
		require.Equal(t, test.inside, w.ContainsDay(test.day), test.day)
	}
}

func TestCompact(t *testing.T) {
	w, err := ParseWindow("2024-11-04", "2024-11-10")
	require.NoError(t, err)
	require.Equal(t, "11042024-11102024", w.Compact())
	require.Equal(t, "2024-11-04_2024-11-10", w.String())
}
