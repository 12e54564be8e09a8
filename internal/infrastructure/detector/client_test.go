package detector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MeasureLink/pkg/errors"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

func TestDetect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "The rod is 10 m long", r.Form.Get("text"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"measurements": [
			{"type": "value",
			 "quantity": {"rawValue": "10", "parsedValue": 10,
			              "offsetStart": 11, "offsetEnd": 13,
			              "rawUnit": {"name": "m", "offsetStart": 14, "offsetEnd": 15}}}
		]}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{Endpoint: srv.URL}, nil)
	ms, err := client.Detect(context.Background(), "The rod is 10 m long")
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, mtypes.KindValue, ms[0].Type)
	assert.Equal(t, "10", ms[0].Quantity.RawValue)
	assert.Equal(t, "m", ms[0].Quantity.RawUnit.Name)
}

func TestDetectNegativeFixup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"measurements": [
			{"type": "value",
			 "quantity": {"rawValue": "10", "parsedValue": 10, "offsetStart": 16, "offsetEnd": 18}}
		]}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{Endpoint: srv.URL}, nil)
	ms, err := client.Detect(context.Background(), "a reading of a -10 drop")
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "-10", ms[0].Quantity.RawValue)
	assert.Equal(t, 15, ms[0].Quantity.OffsetStart)
	require.NotNil(t, ms[0].Quantity.ParsedValue)
	assert.Equal(t, -10.0, *ms[0].Quantity.ParsedValue)
}

func TestDetectNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ms, err := NewHTTPClient(Config{Endpoint: srv.URL}, nil).Detect(context.Background(), "no numbers here")
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestDetectServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(Config{Endpoint: srv.URL}, nil).Detect(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDetectorFailed))
}

func TestDetectDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(Config{Endpoint: srv.URL}, nil).Detect(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDetectorDecode))
}
