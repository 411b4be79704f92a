package telemetry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBPoolMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	snapshot := PoolStats{
		MaxOpenConnections: 25,
		OpenConnections:    7,
		InUse:              4,
		Idle:               3,
		WaitCount:          2,
		WaitDuration:       1500 * time.Millisecond,
	}
	require.NoError(t, RegisterDBPoolMetrics(reg, func() (PoolStats, error) { return snapshot, nil }))

	expected := `
# HELP salesflow_db_pool_connections Database connections by state
# TYPE salesflow_db_pool_connections gauge
salesflow_db_pool_connections{state="idle"} 3
salesflow_db_pool_connections{state="in_use"} 4
# HELP salesflow_db_pool_connections_max Maximum number of open database connections
# TYPE salesflow_db_pool_connections_max gauge
salesflow_db_pool_connections_max 25
# HELP salesflow_db_pool_wait_seconds_total Time spent waiting for a free connection
# TYPE salesflow_db_pool_wait_seconds_total counter
salesflow_db_pool_wait_seconds_total 1.5
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"salesflow_db_pool_connections", "salesflow_db_pool_connections_max", "salesflow_db_pool_wait_seconds_total"))

	snapshot.InUse = 9
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP salesflow_db_pool_connections Database connections by state
# TYPE salesflow_db_pool_connections gauge
salesflow_db_pool_connections{state="idle"} 3
salesflow_db_pool_connections{state="in_use"} 9
`), "salesflow_db_pool_connections"), "every scrape reads the pool again")
}

func TestDBPoolMetrics_StatsError(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterDBPoolMetrics(reg, func() (PoolStats, error) {
		return PoolStats{}, errors.New("pool closed")
	}))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Zero(t, count)
}
