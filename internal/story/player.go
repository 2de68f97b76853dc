// Package story plays scripted scenario walkthroughs and the rotating
// activity feed shown next to them.
package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/internal/pipeline"
	"github.com/GoSim-25-26J-441/promise-core/pkg/config"
	"github.com/GoSim-25-26J-441/promise-core/pkg/logger"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"github.com/GoSim-25-26J-441/promise-core/pkg/utils"
)

// ErrStoryRunning is returned when a story is started while another plays
var ErrStoryRunning = errors.New("story already running")

// Sink receives the scenario changes a story makes
type Sink interface {
	Reset(source string) *pipeline.Evaluation
	Patch(deltas []models.Delta, source string) (*pipeline.Evaluation, error)
	ApplyActions(source string) *pipeline.Evaluation
}

// Source is the label story changes carry
const Source = "story"

// StepResult is emitted after each step is applied
type StepResult struct {
	StoryID    string               `json:"story_id"`
	Step       *Step                `json:"step"`
	Evaluation *pipeline.Evaluation `json:"evaluation"`
}

// Status describes the player
type Status struct {
	Running   bool      `json:"running"`
	StoryID   string    `json:"story_id,omitempty"`
	Name      string    `json:"name"`
	Steps     int       `json:"steps"`
	Completed int       `json:"completed"`
	StartedAt time.Time `json:"started_at"`
}

// Player plays one story at a time against a Sink
type Player struct {
	story  *config.Story
	speed  float64
	logger *slog.Logger

	mu        sync.Mutex
	running   bool
	storyID   string
	completed int
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewPlayer creates a player. Speed scales the step offsets: 2 plays twice
// as fast, and 0 applies every step immediately.
func NewPlayer(s *config.Story, speed float64) (*Player, error) {
	if s == nil {
		return nil, fmt.Errorf("story is nil")
	}
	if speed < 0 {
		return nil, fmt.Errorf("speed cannot be negative, got %g", speed)
	}
	if _, err := NewStepQueue(s); err != nil {
		return nil, fmt.Errorf("invalid story: %w", err)
	}
	return &Player{story: s, speed: speed, logger: logger.Default}, nil
}

// SetLogger sets the player's logger
func (p *Player) SetLogger(l *slog.Logger) {
	p.logger = l
}

// Status returns the current player state
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Running:   p.running,
		StoryID:   p.storyID,
		Name:      p.story.Name,
		Steps:     len(p.story.Steps),
		Completed: p.completed,
		StartedAt: p.startedAt,
	}
}

// Start plays the story in the background and returns its ID
func (p *Player) Start(ctx context.Context, sink Sink, onStep func(StepResult)) (string, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return "", ErrStoryRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	id := p.begin(cancel)
	done := p.done
	p.mu.Unlock()

	go func() {
		defer close(done)
		if err := p.play(runCtx, id, sink, onStep); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warn("story stopped", "story_id", id, "error", err)
		}
	}()
	return id, nil
}

// Play plays the story and blocks until it ends or ctx is cancelled
func (p *Player) Play(ctx context.Context, sink Sink, onStep func(StepResult)) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrStoryRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	id := p.begin(cancel)
	done := p.done
	p.mu.Unlock()

	defer close(done)
	return p.play(runCtx, id, sink, onStep)
}

// Stop cancels the playing story and waits for it to finish.
// It reports whether a story was running.
func (p *Player) Stop() bool {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return false
	}
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
	return true
}

// Wait blocks until the current story, if any, ends
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// begin marks the player running; caller must hold p.mu
func (p *Player) begin(cancel context.CancelFunc) string {
	p.running = true
	p.storyID = utils.GenerateStoryID()
	p.completed = 0
	p.startedAt = time.Now()
	p.cancel = cancel
	p.done = make(chan struct{})
	return p.storyID
}

func (p *Player) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.cancel()
}

func (p *Player) play(ctx context.Context, id string, sink Sink, onStep func(StepResult)) error {
	defer p.finish()

	queue, err := NewStepQueue(p.story)
	if err != nil {
		return err
	}

	p.logger.Info("story started", "story_id", id, "name", p.story.Name, "steps", queue.Size(), "speed", p.speed)
	start := time.Now()

	for step := queue.Next(); step != nil; step = queue.Next() {
		if err := p.waitUntil(ctx, start.Add(p.scale(step.At))); err != nil {
			p.logger.Info("story cancelled", "story_id", id, "step", step.Index)
			return err
		}

		ev, err := applyStep(sink, step)
		if err != nil {
			return fmt.Errorf("step %d: %w", step.Index, err)
		}

		p.mu.Lock()
		p.completed++
		p.mu.Unlock()

		p.logger.Debug("story step applied", "story_id", id, "step", step.Index, "message", step.Message)
		if onStep != nil {
			onStep(StepResult{StoryID: id, Step: step, Evaluation: ev})
		}
	}

	p.logger.Info("story finished", "story_id", id, "elapsed", time.Since(start))
	return nil
}

func (p *Player) scale(at time.Duration) time.Duration {
	if p.speed == 0 {
		return 0
	}
	return time.Duration(float64(at) / p.speed)
}

func (p *Player) waitUntil(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := time.Until(deadline)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// applyStep runs a step's reset, field changes and recommendation pass in
// that order and returns the last evaluation
func applyStep(sink Sink, step *Step) (*pipeline.Evaluation, error) {
	var ev *pipeline.Evaluation
	if step.Reset {
		ev = sink.Reset(Source)
	}
	if len(step.Set) > 0 {
		next, err := sink.Patch(step.Set, Source)
		if err != nil {
			return nil, err
		}
		ev = next
	}
	if step.ApplyRecommendations {
		ev = sink.ApplyActions(Source)
	}
	return ev, nil
}
