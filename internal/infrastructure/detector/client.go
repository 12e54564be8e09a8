// Package detector is the HTTP client for the external measurement
// detection service (grobid-quantities-compatible): given sentence text it
// returns candidate quantities, units, intervals, and quantified entities
// with character offsets.
package detector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MeasureLink/pkg/errors"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// Client detects measurements in one sentence.
type Client interface {
	Detect(ctx context.Context, sentence string) ([]*mtypes.Measurement, error)
}

// Config holds the client's connection parameters.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

type httpClient struct {
	endpoint string
	hc       *http.Client
	logger   logging.Logger
}

// NewHTTPClient builds a detector client against a grobid-quantities-style
// endpoint.
func NewHTTPClient(cfg Config, logger logging.Logger) Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		hc:       &http.Client{Timeout: timeout},
		logger:   logger.Named("detector"),
	}
}

type apiResponse struct {
	Measurements []*mtypes.Measurement `json:"measurements"`
}

func (c *httpClient) Detect(ctx context.Context, sentence string) ([]*mtypes.Measurement, error) {
	form := url.Values{"text": {sentence}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/processQuantityText", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDetectorFailed, "failed to build detector request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDetectorFailed, "detector request failed")
	}
	defer resp.Body.Close()

	// The service answers 204 when the sentence carries no measurements.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf(errors.ErrCodeDetectorFailed,
			"detector returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDetectorDecode, "failed to decode detector response")
	}

	for _, m := range decoded.Measurements {
		fixNegative(m, sentence)
	}
	c.logger.Debug("detected measurements",
		logging.Int("count", len(decoded.Measurements)),
		logging.Duration("elapsed", time.Since(start)))
	return decoded.Measurements, nil
}

// fixNegative restores a minus sign the detector drops: when the character
// before the reported raw value in the sentence is a hyphen, the value is
// negative and its offset moves back one.
func fixNegative(m *mtypes.Measurement, sentence string) {
	q := m.KeyQuantity()
	if q == nil || q.RawValue == "" {
		return
	}
	idx := strings.Index(sentence, q.RawValue)
	if idx <= 0 || sentence[idx-1] != '-' {
		return
	}
	q.RawValue = "-" + q.RawValue
	q.OffsetStart--
	if q.ParsedValue != nil {
		negated := -*q.ParsedValue
		q.ParsedValue = &negated
	}
}
