package prometheus

import (
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestNewRegistersAllMetrics(t *testing.T) {
	m := New(Config{})
	require.NotNil(t, m)
	assert.NotNil(t, m.SentencesTotal)
	assert.NotNil(t, m.MeasurementsTotal)
	assert.NotNil(t, m.SkipsTotal)
	assert.NotNil(t, m.ExtractionDuration)
	assert.NotNil(t, m.CollaboratorDuration)
	assert.NotNil(t, m.ActiveWorkers)
}

func TestCountersAppearInScrape(t *testing.T) {
	m := New(Config{Namespace: "testns"})

	m.SentencesTotal.WithLabelValues("ok").Inc()
	m.SentencesTotal.WithLabelValues("parse_failure").Inc()
	m.MeasurementsTotal.WithLabelValues("value").Add(3)
	m.SkipsTotal.WithLabelValues("ALN_001").Inc()

	output := scrape(t, m)
	assert.Contains(t, output, `testns_sentences_total{outcome="ok"} 1`)
	assert.Contains(t, output, `testns_sentences_total{outcome="parse_failure"} 1`)
	assert.Contains(t, output, `testns_measurements_total{kind="value"} 3`)
	assert.Contains(t, output, `testns_measurement_skips_total{code="ALN_001"} 1`)
}

func TestObserveCollaborator(t *testing.T) {
	m := New(Config{Namespace: "testns"})

	m.ObserveCollaborator("annotator", 120*time.Millisecond, nil)
	m.ObserveCollaborator("detector", 50*time.Millisecond, errors.New("boom"))

	output := scrape(t, m)
	assert.Contains(t, output,
		`testns_collaborator_request_duration_seconds_count{collaborator="annotator",status="ok"} 1`)
	assert.Contains(t, output,
		`testns_collaborator_request_duration_seconds_count{collaborator="detector",status="error"} 1`)
}

func TestRecordCacheAccess(t *testing.T) {
	m := New(Config{Namespace: "testns"})

	m.RecordCacheAccess("detector", true)
	m.RecordCacheAccess("detector", false)
	m.RecordCacheAccess("detector", false)

	output := scrape(t, m)
	assert.Contains(t, output, `testns_cache_access_total{collaborator="detector",result="hit"} 1`)
	assert.Contains(t, output, `testns_cache_access_total{collaborator="detector",result="miss"} 2`)
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New(Config{Namespace: "testns"})

	m.RecordHTTPRequest("POST", "/api/v1/extract", "200", 30*time.Millisecond)

	output := scrape(t, m)
	assert.Contains(t, output,
		`testns_http_requests_total{method="POST",path="/api/v1/extract",status="200"} 1`)
	assert.Contains(t, output,
		`testns_http_request_duration_seconds_count{method="POST",path="/api/v1/extract"} 1`)
}

func TestConcurrentRecording(t *testing.T) {
	m := New(Config{Namespace: "testns"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.SentencesTotal.WithLabelValues("ok").Inc()
				m.ActiveWorkers.Inc()
				m.ActiveWorkers.Dec()
			}
		}()
	}
	wg.Wait()

	output := scrape(t, m)
	assert.Contains(t, output, `testns_sentences_total{outcome="ok"} 1000`)
	assert.Contains(t, output, `testns_active_workers 0`)
}
