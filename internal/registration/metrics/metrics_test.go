package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordToRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementWrite("register", "created", 2)
	m.IncrementWrite("upsert", "updated", 1)
	m.IncrementDenial("write_prefix_mismatch")
	m.ObserveOperation("resolve", time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriteOutcomes.WithLabelValues("register", "created")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LocationsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Denials.WithLabelValues("write_prefix_mismatch")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationDuration))
}
