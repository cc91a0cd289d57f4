package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValues flattens a gathered counter family into label value -> count.
func counterValues(t *testing.T, reg *prometheus.Registry, name string) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			out[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	return out
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordPrediction("Discount")
	r.RecordPrediction("Discount")
	r.RecordPrediction("No Offer")
	r.RecordError("scoring")
	r.RecordCache("hit")
	r.RecordUplift("discount", 0.2)
	r.RecordLatency("recommend", 0.01)

	assert.Equal(t, map[string]float64{"Discount": 2, "No Offer": 1}, counterValues(t, reg, "uplift_predictions_total"))
	assert.Equal(t, map[string]float64{"scoring": 1}, counterValues(t, reg, "uplift_errors_total"))
	assert.Equal(t, map[string]float64{"hit": 1}, counterValues(t, reg, "uplift_decision_cache_total"))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "uplift_estimate")
	assert.Contains(t, names, "uplift_operation_duration_seconds")
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
