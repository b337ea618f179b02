package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.modelRequestsTotal)
	assert.NotNil(t, collector.analysisFallbacks)
	assert.NotNil(t, collector.sessionsActive)
}

func TestNewCollector_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() { NewCollector(nextTestNamespace(), nil) })
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("GET", "/health", 200, 100*time.Millisecond, 1024, 2048)
	collector.RecordHTTPRequest("POST", "/api/analyze-page", 400, 50*time.Millisecond, 512, 64)

	assert.Equal(t, 2, testutil.CollectAndCount(collector.httpRequestsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("POST", "/api/analyze-page", "4xx")))
}

func TestCollector_RecordModelRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordModelRequest("ollama", "qwen2.5vl:7b", "vision", "success", time.Second)
	collector.RecordModelRequest("ollama", "qwen2.5vl:7b", "vision", "success", 2*time.Second)
	collector.RecordModelRequest("ollama", "qwen2.5vl:7b", "generate", "error", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.modelRequestsTotal.WithLabelValues("ollama", "qwen2.5vl:7b", "vision", "success")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.modelRequestDuration))
}

func TestCollector_AnalysisMetrics(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordAnalysisFallback("transport")
	collector.RecordAnalysisFallback("format")
	collector.RecordAnalysisFallback("format")
	collector.RecordCommandMatch("keyword")
	collector.RecordImageNormalize(20 * time.Millisecond)
	collector.SetActiveSessions(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.analysisFallbacks.WithLabelValues("format")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.commandMatches.WithLabelValues("keyword")))
	assert.Equal(t, 7.0, testutil.ToFloat64(collector.sessionsActive))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.imageNormalize))
}

func TestStatusCode(t *testing.T) {
	tests := map[int]string{200: "2xx", 301: "3xx", 404: "4xx", 503: "5xx", 100: "unknown"}
	for code, want := range tests {
		assert.Equal(t, want, statusCode(code))
	}
}
