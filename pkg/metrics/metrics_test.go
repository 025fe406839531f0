package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	Exports.WithLabelValues("pdf", Outcome(nil)).Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(Exports.WithLabelValues("pdf", "ok")))
	require.Equal(t, "error", Outcome(errors.New("x")))
}
