package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigYAMLDurations(t *testing.T) {
	config := Config{
		Source: Source{ProductionFile: "prod.csv", DateLayouts: []string{"01-2006"}},
		Store: Store{Driver: "sqlite3", DSN: "flarewatch.sqlite3"},
		Fetch: Fetch{Workers: 6, RetryDelay: 5 * time.Second, Timeout: time.Minute},
		Report: Report{Top: 30, MergeKey: "well", Format: "table"},
	}

	data, err := yaml.Marshal(&config)
	require.NoError(t, err)
	assert.Contains(t, string(data), "retry_delay: 5s")
	assert.Contains(t, string(data), "timeout: 1m0s")
	assert.NotContains(t, string(data), "start_year")

	var loaded Config
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, config, loaded)
}
