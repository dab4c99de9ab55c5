package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Key     string `json:"key" env:"FINFEED_TEST_KEY"`
	Spacing int    `json:"spacing"`
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(
		filepath.Join(dir, "finfeed.json5"),
		[]byte(`{key: "default", spacing: 2}`),
		0644,
	)
	require.NoError(t, err)
	err = os.WriteFile(
		filepath.Join(dir, "finfeed.local.json5"),
		[]byte(`{key: "real-key"}`),
		0644,
	)
	require.NoError(t, err)

	out, err := ReadConfig[testConfig](filepath.Join(dir, "finfeed.json5"))
	require.NoError(t, err)
	require.Equal(t, "real-key", out.Key)
	require.Equal(t, 2, out.Spacing)
}

func TestReadConfigEnvOverridesFiles(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(
		filepath.Join(dir, "finfeed.json5"),
		[]byte(`{key: "from-file", spacing: 2}`),
		0644,
	)
	require.NoError(t, err)
	t.Setenv("FINFEED_TEST_KEY", "from-env")

	out, err := ReadConfig[testConfig](filepath.Join(dir, "finfeed.json5"))
	require.NoError(t, err)
	require.Equal(t, "from-env", out.Key)
	require.Equal(t, 2, out.Spacing)
}

func TestReadConfigEnvOnlyStillApplies(t *testing.T) {
	t.Setenv("FINFEED_TEST_KEY", "env-only")

	out, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "finfeed.json5"))
	require.True(t, os.IsNotExist(err))
	require.Equal(t, "env-only", out.Key)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.True(t, os.IsNotExist(err))
}
