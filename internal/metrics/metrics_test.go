package metrics

import (
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAnomaly(t *testing.T) {
	before := promtestutil.ToFloat64(RecordAnomalies.WithLabelValues(AnomalyUnparseableCurrency))

	RecordAnomaly(AnomalyUnparseableCurrency)
	RecordAnomaly(AnomalyUnparseableCurrency)

	after := promtestutil.ToFloat64(RecordAnomalies.WithLabelValues(AnomalyUnparseableCurrency))
	assert.Equal(t, before+2, after)
}

func TestRecordHTTPRequest_UnmatchedRoute(t *testing.T) {
	before := promtestutil.ToFloat64(httpRequestTotal.WithLabelValues("GET", "unmatched", "404"))

	RecordHTTPRequest("GET", "", 404, 5*time.Millisecond)

	after := promtestutil.ToFloat64(httpRequestTotal.WithLabelValues("GET", "unmatched", "404"))
	assert.Equal(t, before+1, after)
}
