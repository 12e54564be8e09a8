// Package extraction orchestrates the full pipeline for a block of text:
// annotation, per-sentence graph construction, measurement detection,
// alignment, relation traversal, and reconciliation.
package extraction

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/MeasureLink/internal/domain/align"
	"github.com/turtacn/MeasureLink/internal/domain/annotation"
	"github.com/turtacn/MeasureLink/internal/domain/graph"
	"github.com/turtacn/MeasureLink/internal/engine/relation"
	"github.com/turtacn/MeasureLink/internal/infrastructure/annotator"
	"github.com/turtacn/MeasureLink/internal/infrastructure/cache"
	"github.com/turtacn/MeasureLink/internal/infrastructure/detector"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MeasureLink/pkg/errors"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// Publisher forwards finished extractions to a message bus.
type Publisher interface {
	Publish(ctx context.Context, extraction *mtypes.Extraction) error
}

// Options wires the pipeline's collaborators.  Cache, Publisher, and
// Metrics are optional; Concurrency defaults to 1.
type Options struct {
	Annotator   annotator.Client
	Detector    detector.Client
	Engine      *relation.Engine
	Cache       cache.Cache
	Publisher   Publisher
	Metrics     *prometheus.Metrics
	Logger      logging.Logger
	Concurrency int
}

// Service runs the extraction pipeline.  It is safe for concurrent use:
// all sentence-scoped state lives on the stack of one worker.
type Service struct {
	annotator   annotator.Client
	detector    detector.Client
	engine      *relation.Engine
	cache       cache.Cache
	publisher   Publisher
	metrics     *prometheus.Metrics
	logger      logging.Logger
	concurrency int
}

// NewService builds a Service from Options.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		annotator:   opts.Annotator,
		detector:    opts.Detector,
		engine:      opts.Engine,
		cache:       opts.Cache,
		publisher:   opts.Publisher,
		metrics:     opts.Metrics,
		logger:      logger.Named("extraction"),
		concurrency: concurrency,
	}
}

// Extract annotates text, then processes every sentence independently and
// returns one Extraction per successfully parsed sentence, in sentence
// order.  Sentences whose dependency parse is incomplete are skipped and
// logged; a failed annotator call fails the whole request.
func (s *Service) Extract(ctx context.Context, text string) ([]*mtypes.Extraction, error) {
	start := time.Now()
	sentences, err := s.annotate(ctx, text)
	if err != nil {
		return nil, err
	}

	// One slot per sentence keeps output ordered regardless of which
	// worker finishes first.  Parse failures leave their slot nil.
	results := make([]*mtypes.Extraction, len(sentences))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range sentences {
		i := i
		g.Go(func() error {
			if s.metrics != nil {
				s.metrics.ActiveWorkers.Inc()
				defer s.metrics.ActiveWorkers.Dec()
			}
			extraction, err := s.processSentence(gctx, &sentences[i])
			if err != nil {
				return err
			}
			results[i] = extraction
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*mtypes.Extraction, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}

	if s.publisher != nil {
		s.publish(ctx, out)
	}
	if s.metrics != nil {
		s.metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	}
	return out, nil
}

// processSentence runs detection, alignment, and relation traversal for
// one sentence.  A nil Extraction with nil error marks a skipped sentence.
func (s *Service) processSentence(ctx context.Context, sentence *annotation.Sentence) (*mtypes.Extraction, error) {
	if err := sentence.CheckParse(); err != nil {
		s.logger.Warn("skipping sentence with incomplete parse",
			logging.Int("sentence", sentence.Index), logging.Err(err))
		s.countSentence("parse_failure")
		return nil, nil
	}

	store := annotation.NewStore(sentence.Tokens)
	sentenceGraph := graph.Build(sentence.Edges, store)
	text := sentence.Text()

	detected, err := s.detect(ctx, text)
	if err != nil {
		return nil, err
	}

	extraction := &mtypes.Extraction{
		SentenceIndex: sentence.Index,
		Sentence:      text,
		Measurements:  make([]*mtypes.Measurement, 0, len(detected)),
	}

	for _, m := range detected {
		match, err := align.Align(m, store)
		if err != nil {
			if errors.IsRecoverable(err) {
				s.logger.Debug("skipping unalignable measurement",
					logging.Int("sentence", sentence.Index),
					logging.String("code", errors.GetCode(err).String()))
				s.countSkip(err)
				continue
			}
			return nil, err
		}

		tctx := &relation.Context{
			Graph:      sentenceGraph,
			Store:      store,
			NumberWord: match.NumberText,
		}
		related, err := s.engine.FindRelated(tctx, match.Anchors(), match.Format)
		if err != nil {
			return nil, err
		}
		adverbs, err := s.engine.FindAdverbs(tctx, match.NumberTokenIndex, match.Format)
		if err != nil {
			return nil, err
		}

		m.Related = relation.Reconcile(related, m)
		m.Adverbs = adverbs
		extraction.Measurements = append(extraction.Measurements, m)
		s.countMeasurement(m)
	}

	s.countSentence("ok")
	return extraction, nil
}

// annotate calls the annotator, reading through the cache when one is
// configured.  Annotation is a pure function of the text, so entries never
// go stale.
func (s *Service) annotate(ctx context.Context, text string) ([]annotation.Sentence, error) {
	if s.cache == nil {
		return s.callAnnotator(ctx, text)
	}

	key := cache.Key("annotate", text)
	var sentences []annotation.Sentence
	if err := s.cache.Get(ctx, key, &sentences); err == nil {
		s.recordCacheAccess("annotator", true)
		return sentences, nil
	}
	s.recordCacheAccess("annotator", false)

	err := s.cache.GetOrSet(ctx, key, &sentences, 0,
		func(ctx context.Context) (interface{}, error) {
			return s.callAnnotator(ctx, text)
		})
	return sentences, err
}

func (s *Service) detect(ctx context.Context, sentence string) ([]*mtypes.Measurement, error) {
	if s.cache == nil {
		return s.callDetector(ctx, sentence)
	}

	key := cache.Key("detect", sentence)
	var detected []*mtypes.Measurement
	if err := s.cache.Get(ctx, key, &detected); err == nil {
		s.recordCacheAccess("detector", true)
		return detected, nil
	}
	s.recordCacheAccess("detector", false)

	err := s.cache.GetOrSet(ctx, key, &detected, 0,
		func(ctx context.Context) (interface{}, error) {
			return s.callDetector(ctx, sentence)
		})
	return detected, err
}

func (s *Service) callAnnotator(ctx context.Context, text string) ([]annotation.Sentence, error) {
	start := time.Now()
	sentences, err := s.annotator.Annotate(ctx, text)
	if s.metrics != nil {
		s.metrics.ObserveCollaborator("annotator", time.Since(start), err)
	}
	return sentences, err
}

func (s *Service) callDetector(ctx context.Context, sentence string) ([]*mtypes.Measurement, error) {
	start := time.Now()
	detected, err := s.detector.Detect(ctx, sentence)
	if s.metrics != nil {
		s.metrics.ObserveCollaborator("detector", time.Since(start), err)
	}
	return detected, err
}

// publish forwards extractions carrying at least one measurement.  Publish
// failures are logged and counted, never propagated: the caller already
// holds the result.
func (s *Service) publish(ctx context.Context, extractions []*mtypes.Extraction) {
	for _, e := range extractions {
		if len(e.Measurements) == 0 {
			continue
		}
		outcome := "ok"
		if err := s.publisher.Publish(ctx, e); err != nil {
			outcome = "error"
			s.logger.Error("failed to publish extraction",
				logging.Int("sentence", e.SentenceIndex), logging.Err(err))
		}
		if s.metrics != nil {
			s.metrics.PublishTotal.WithLabelValues(outcome).Inc()
		}
	}
}

func (s *Service) countSentence(outcome string) {
	if s.metrics != nil {
		s.metrics.SentencesTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countSkip(err error) {
	if s.metrics != nil {
		s.metrics.SkipsTotal.WithLabelValues(errors.GetCode(err).String()).Inc()
	}
}

func (s *Service) countMeasurement(m *mtypes.Measurement) {
	if s.metrics != nil {
		s.metrics.MeasurementsTotal.WithLabelValues(string(m.Type)).Inc()
	}
}

func (s *Service) recordCacheAccess(collaborator string, hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheAccess(collaborator, hit)
	}
}
