// Package annotator is the HTTP client for the external linguistic
// annotation service (CoreNLP-compatible): tokens, lemmas, POS/NER tags,
// and a labeled dependency parse per sentence.
package annotator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/MeasureLink/internal/domain/annotation"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MeasureLink/pkg/errors"
)

// annotatorProperties selects the annotation pipeline and JSON output.
const annotatorProperties = `{"annotators":"tokenize,ssplit,pos,lemma,ner,depparse","outputFormat":"json"}`

// Client annotates raw text into parsed sentences.
type Client interface {
	Annotate(ctx context.Context, text string) ([]annotation.Sentence, error)
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

// NewHTTPClient builds an annotator client against a CoreNLP-style
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
		logger:   logger.Named("annotator"),
	}
}

// apiSentence mirrors one sentence of the service's JSON response.  The
// dependency key differs across service versions, so every known spelling
// is decoded and the richest non-empty one wins.
type apiSentence struct {
	Index                  int                         `json:"index"`
	Tokens                 []annotation.Token          `json:"tokens"`
	EnhancedPlusPlus       []annotation.DependencyEdge `json:"enhancedPlusPlusDependencies"`
	EnhancedPlusPlusLegacy []annotation.DependencyEdge `json:"enhanced-plus-plus-dependencies"`
	CollapsedCCProcessed   []annotation.DependencyEdge `json:"collapsed-ccprocessed-dependencies"`
	Basic                  []annotation.DependencyEdge `json:"basicDependencies"`
}

func (s *apiSentence) edges() []annotation.DependencyEdge {
	for _, candidate := range [][]annotation.DependencyEdge{
		s.EnhancedPlusPlus, s.EnhancedPlusPlusLegacy, s.CollapsedCCProcessed, s.Basic,
	} {
		if len(candidate) > 0 {
			return candidate
		}
	}
	return nil
}

type apiResponse struct {
	Sentences []apiSentence `json:"sentences"`
}

func (c *httpClient) Annotate(ctx context.Context, text string) ([]annotation.Sentence, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no text to annotate")
	}

	endpoint := c.endpoint + "/?properties=" + url.QueryEscape(annotatorProperties)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(text))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnnotatorFailed, "failed to build annotator request")
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnnotatorFailed, "annotator request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf(errors.ErrCodeAnnotatorFailed,
			"annotator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnnotatorDecode, "failed to decode annotator response")
	}

	sentences := make([]annotation.Sentence, 0, len(decoded.Sentences))
	for _, s := range decoded.Sentences {
		sentences = append(sentences, annotation.Sentence{
			Index:  s.Index,
			Tokens: s.Tokens,
			Edges:  s.edges(),
		})
	}
	c.logger.Debug("annotated text",
		logging.Int("sentences", len(sentences)),
		logging.Duration("elapsed", time.Since(start)))
	return sentences, nil
}
