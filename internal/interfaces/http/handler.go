package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/turtacn/MeasureLink/internal/application/extraction"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MeasureLink/pkg/errors"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// extractRequest is the body of POST /api/v1/extract.
type extractRequest struct {
	Text     string `json:"text"`
	Simplify bool   `json:"simplify,omitempty"`
}

// extractResponse carries the full output records.
type extractResponse struct {
	Extractions []*mtypes.Extraction `json:"extractions"`
}

// simplifiedSentence pairs a sentence with its simplified projections.
type simplifiedSentence struct {
	SentenceIndex int                  `json:"sentenceIndex"`
	Sentence      string               `json:"sentence"`
	Measurements  []*mtypes.Simplified `json:"measurements"`
}

type simplifiedResponse struct {
	Extractions []simplifiedSentence `json:"extractions"`
}

type extractHandler struct {
	extractor Extractor
	logger    logging.Logger
}

func (h *extractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeAppError(w, errors.New(errors.ErrCodeEmptyInput, "text must not be empty"))
		return
	}

	extractions, err := h.extractor.Extract(r.Context(), req.Text)
	if err != nil {
		h.logger.Error("extraction failed", logging.Err(err))
		writeAppError(w, err)
		return
	}

	if !req.Simplify {
		writeJSON(w, http.StatusOK, extractResponse{Extractions: extractions})
		return
	}

	resp := simplifiedResponse{Extractions: make([]simplifiedSentence, 0, len(extractions))}
	for _, e := range extractions {
		resp.Extractions = append(resp.Extractions, simplifiedSentence{
			SentenceIndex: e.SentenceIndex,
			Sentence:      e.Sentence,
			Measurements:  extraction.SimplifyExtraction(e),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// errorResponse is the standard error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError maps pipeline error codes onto HTTP statuses.  Server-side
// codes are masked with their default message so internals never leak.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	message := err.Error()
	if errors.IsServerError(code) {
		message = errors.DefaultMessageForCode(code)
	}
	writeJSON(w, status, errorResponse{Code: code.String(), Message: message})
}
