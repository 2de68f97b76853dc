// Package promised is the delivery-promise daemon: a process-wide scenario
// session exposed over HTTP and gRPC.
package promised

import (
	"fmt"
	"sync"

	"github.com/GoSim-25-26J-441/promise-core/internal/metrics"
	"github.com/GoSim-25-26J-441/promise-core/internal/pipeline"
	"github.com/GoSim-25-26J-441/promise-core/internal/recommend"
	"github.com/GoSim-25-26J-441/promise-core/pkg/logger"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
)

// subscriberBuffer is the per-subscriber channel depth
const subscriberBuffer = 16

// Session holds the current scenario and the evaluation derived from it.
// Every change replaces both together, so a reader never sees KPIs and
// actions from different scenarios.
type Session struct {
	evaluator *pipeline.Evaluator
	collector *metrics.Collector
	initial   models.ScenarioConfig

	mu      sync.RWMutex
	current *pipeline.Evaluation
	subs    map[int]chan *pipeline.Evaluation
	nextSub int
}

// NewSession creates a session starting at initial, which Reset returns to
func NewSession(evaluator *pipeline.Evaluator, initial models.ScenarioConfig, collector *metrics.Collector) *Session {
	if evaluator == nil {
		evaluator = pipeline.NewEvaluator(nil, nil)
	}
	if collector == nil {
		collector = metrics.NewCollector(0)
	}
	s := &Session{
		evaluator: evaluator,
		collector: collector,
		initial:   initial.Normalize(),
		subs:      make(map[int]chan *pipeline.Evaluation),
	}
	s.mu.Lock()
	s.commitLocked(evaluator.Evaluate(s.initial), metrics.SourceReset)
	s.mu.Unlock()
	return s
}

// Evaluator returns the session's evaluator
func (s *Session) Evaluator() *pipeline.Evaluator {
	return s.evaluator
}

// Collector returns the session's metrics collector
func (s *Session) Collector() *metrics.Collector {
	return s.collector
}

// Current returns the latest evaluation
func (s *Session) Current() *pipeline.Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update replaces the scenario wholesale
func (s *Session) Update(cfg models.ScenarioConfig, source string) *pipeline.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(s.evaluator.Evaluate(cfg), source)
}

// Patch applies deltas to the current scenario
func (s *Session) Patch(deltas []models.Delta, source string) (*pipeline.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := models.ApplyDeltas(s.current.Scenario, deltas)
	if err != nil {
		return nil, fmt.Errorf("failed to patch scenario: %w", err)
	}
	// deltas without their own min/max must land inside the slider domains
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("failed to patch scenario: %w", err)
	}
	return s.commitLocked(s.evaluator.Evaluate(next), source), nil
}

// Reset returns to the initial scenario
func (s *Session) Reset(source string) *pipeline.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(s.evaluator.Evaluate(s.initial), source)
}

// ApplyActions applies every currently recommended action, in order
func (s *Session) ApplyActions(source string) *pipeline.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := s.current.Actions
	next := recommend.ApplyAll(s.current.Scenario, applied)
	ev := s.commitLocked(s.evaluator.Evaluate(next), source)

	ids := make([]string, 0, len(applied))
	for _, a := range applied {
		ids = append(ids, a.ID)
	}
	logger.Info("recommended actions applied", "source", source, "actions", ids, "evaluation_id", ev.ID)
	return ev
}

// Subscribe returns a channel receiving every new evaluation and a function
// that cancels the subscription. A slow subscriber loses older evaluations,
// never the newest.
func (s *Session) Subscribe() (<-chan *pipeline.Evaluation, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan *pipeline.Evaluation, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// commitLocked installs ev as current; caller must hold s.mu
func (s *Session) commitLocked(ev *pipeline.Evaluation, source string) *pipeline.Evaluation {
	s.current = ev
	metrics.RecordKPIs(s.collector, ev.KPI, len(ev.Actions), ev.EvaluatedAt, metrics.CreateSourceLabels(source))

	logger.Debug("scenario evaluated",
		"evaluation_id", ev.ID,
		"source", source,
		"on_time_rate", ev.KPI.OnTimeRate,
		"cost_per_order", ev.KPI.CostPerOrder,
		"actions", len(ev.Actions))

	for _, ch := range s.subs {
		publish(ch, ev)
	}
	return ev
}

func publish(ch chan *pipeline.Evaluation, ev *pipeline.Evaluation) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		// full: drop the oldest and retry
		select {
		case <-ch:
		default:
		}
	}
}
