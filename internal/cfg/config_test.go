package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, c.FlushInterval)
	assert.Equal(t, "0.0.0.0", c.Collector.Host)
	assert.Equal(t, 8125, c.Collector.Port)
	assert.Equal(t, "statsite", c.Store.Prefix)
	assert.Equal(t, 3, c.Store.Attempts)
	assert.Equal(t, 90, c.Metrics.MS.Percentile)
	assert.False(t, c.AlivenessCheck.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statsite.toml")
	body := `
flush_interval = 5

[store]
host = "graphite.internal"
port = 2004
prefix = "myapp"
attempts = 4

[metrics.ms]
percentile = 95

[aliveness_check]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, c.FlushInterval)
	assert.Equal(t, "graphite.internal", c.Store.Host)
	assert.Equal(t, 2004, c.Store.Port)
	assert.Equal(t, "myapp", c.Store.Prefix)
	assert.Equal(t, 4, c.Store.Attempts)
	assert.Equal(t, 95, c.Metrics.MS.Percentile)
	assert.True(t, c.AlivenessCheck.Enabled)
}

func TestValidate_RejectsOutOfRangePercentile(t *testing.T) {
	c := Default()
	c.Metrics.MS.Percentile = 0
	assert.Error(t, Validate(c))

	c.Metrics.MS.Percentile = 100
	assert.Error(t, Validate(c))
}

func TestValidate_RejectsLowAttempts(t *testing.T) {
	c := Default()
	c.Store.Attempts = 1
	assert.Error(t, Validate(c))
}
