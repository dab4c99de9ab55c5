package recordio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "NVDA_daily.csv")
	cols := Columns{"date", "symbol", "asset_type", "open", "high", "low", "close", "volume"}
	records := []Record{
		{"date": "2024-01-02", "symbol": "NVDA", "asset_type": "equity", "open": 492.44, "high": 495.0, "low": 475.95, "close": 481.68, "volume": int64(41125400)},
		{"date": "2024-01-03", "symbol": "NVDA", "asset_type": "equity", "open": 474.5, "high": 481.84, "low": 473.2, "close": 475.69, "volume": nil},
	}

	require.NoError(t, WriteCSV(path, cols, records))

	gotCols, got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Equal(t, cols, gotCols)

	want := []Record{
		{"date": "2024-01-02", "symbol": "NVDA", "asset_type": "equity", "open": "492.44", "high": "495", "low": "475.95", "close": "481.68", "volume": "41125400"},
		{"date": "2024-01-03", "symbol": "NVDA", "asset_type": "equity", "open": "474.5", "high": "481.84", "low": "473.2", "close": "475.69", "volume": ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSVOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	cols := Columns{"date", "value"}

	require.NoError(t, WriteCSV(path, cols, []Record{
		{"date": "2024-01-01", "value": 1},
		{"date": "2024-01-02", "value": 2},
	}))
	require.NoError(t, WriteCSV(path, cols, []Record{
		{"date": "2024-02-01", "value": 3},
	}))

	_, got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "2024-02-01", got[0]["date"])
}

func TestWriteJSONPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fng.json")
	records := []Record{
		{"date": "2024-01-01", "value": int64(65)},
		{"date": "2024-01-02", "value": int64(70)},
		{"date": "2024-01-03", "value": nil},
	}

	require.NoError(t, WriteJSON(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 3)
	require.Equal(t, "2024-01-01", got[0]["date"])
	require.Equal(t, "2024-01-03", got[2]["date"])
	require.Nil(t, got[2]["value"])
}
