package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MeasureLink/pkg/errors"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

type fakeExtractor struct {
	extractions []*mtypes.Extraction
	err         error
	gotText     string
}

func (f *fakeExtractor) Extract(_ context.Context, text string) ([]*mtypes.Extraction, error) {
	f.gotText = text
	return f.extractions, f.err
}

type fakeChecker struct {
	name string
	err  error
}

func (c *fakeChecker) Name() string                { return c.name }
func (c *fakeChecker) Check(context.Context) error { return c.err }

func parsed(v float64) *float64 { return &v }

func sampleExtractions() []*mtypes.Extraction {
	return []*mtypes.Extraction{{
		SentenceIndex: 0,
		Sentence:      "The rod is 10 m long.",
		Measurements: []*mtypes.Measurement{{
			Type: mtypes.KindValue,
			Quantity: &mtypes.Quantity{
				RawValue:    "10",
				ParsedValue: parsed(10),
				RawUnit:     &mtypes.Unit{Name: "m"},
			},
			Related: []mtypes.RelatedWord{{RawName: "rod", RelationForm: "nsubj"}},
		}},
	}}
}

func postExtract(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestExtractEndpoint(t *testing.T) {
	ex := &fakeExtractor{extractions: sampleExtractions()}
	handler := NewRouter(RouterConfig{Extractor: ex})

	rec := postExtract(t, handler, `{"text": "The rod is 10 m long."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The rod is 10 m long.", ex.gotText)

	var resp extractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Extractions, 1)
	require.Len(t, resp.Extractions[0].Measurements, 1)
	assert.Equal(t, "rod", resp.Extractions[0].Measurements[0].Related[0].RawName)
}

func TestExtractEndpointSimplified(t *testing.T) {
	ex := &fakeExtractor{extractions: sampleExtractions()}
	handler := NewRouter(RouterConfig{Extractor: ex})

	rec := postExtract(t, handler, `{"text": "The rod is 10 m long.", "simplify": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp simplifiedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Extractions, 1)
	require.Len(t, resp.Extractions[0].Measurements, 1)
	assert.Equal(t, 10.0, resp.Extractions[0].Measurements[0].Value)
	assert.Equal(t, "m", resp.Extractions[0].Measurements[0].Unit)
}

func TestExtractEndpointRejectsEmptyText(t *testing.T) {
	handler := NewRouter(RouterConfig{Extractor: &fakeExtractor{}})

	rec := postExtract(t, handler, `{"text": "   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PRS_003", resp.Code)
}

func TestExtractEndpointRejectsMalformedBody(t *testing.T) {
	handler := NewRouter(RouterConfig{Extractor: &fakeExtractor{}})

	rec := postExtract(t, handler, `{"text": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractEndpointMapsCollaboratorFailure(t *testing.T) {
	ex := &fakeExtractor{err: errors.New(errors.ErrCodeAnnotatorFailed, "connection refused to 10.0.0.1")}
	handler := NewRouter(RouterConfig{Extractor: ex})

	rec := postExtract(t, handler, `{"text": "some text"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PRS_002", resp.Code)
	// Server-side failures come back with the masked default message.
	assert.NotContains(t, resp.Message, "10.0.0.1")
}

func TestLivenessProbe(t *testing.T) {
	handler := NewRouter(RouterConfig{Extractor: &fakeExtractor{}, Version: "1.2.3"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp livenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestReadinessProbe(t *testing.T) {
	handler := NewRouter(RouterConfig{
		Extractor: &fakeExtractor{},
		Checkers: []HealthChecker{
			&fakeChecker{name: "redis"},
			&fakeChecker{name: "annotator", err: errors.New(errors.ErrCodeExternalService, "unreachable")},
		},
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ok", resp.Components["redis"])
	assert.Contains(t, resp.Components["annotator"], "unreachable")
}

func TestUnknownRouteIs404(t *testing.T) {
	handler := NewRouter(RouterConfig{Extractor: &fakeExtractor{}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
