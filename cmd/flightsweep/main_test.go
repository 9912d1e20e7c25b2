package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flightsweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "flightsweep dev")
}

func TestAnalyzeWithEmptyCache(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
log:
  level: error
cache:
  backend: file
  dir: `+filepath.Join(dir, "cache")+`
output_dir: `+filepath.Join(dir, "output")+`
grid:
  departure_dates: ["2026-04-24"]
  region_a_nights: [21]
  region_b_nights: [5]
`)

	out, err := execute(t, "analyze", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No itineraries found!")
	assert.Contains(t, out, "1 grid points skipped for missing data")
	assert.NoDirExists(t, filepath.Join(dir, "output"))
}

func TestInvalidConfigFails(t *testing.T) {
	path := writeConfig(t, `
port: -1
grid:
  region_a_nights: [0]
`)

	_, err := execute(t, "analyze", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Port")
	assert.Contains(t, err.Error(), "Grid.RegionANights[0]")
}

func TestCollectRequiresAPIKey(t *testing.T) {
	t.Setenv("DUFFEL_API_KEY", "")
	t.Setenv("FLIGHTSWEEP_DUFFEL_API_KEY", "")
	path := writeConfig(t, "cache:\n  backend: none\n")

	_, err := execute(t, "collect", "--config", path)
	assert.EqualError(t, err, "DUFFEL_API_KEY is not set")
}
