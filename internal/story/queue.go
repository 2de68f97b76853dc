package story

import (
	"container/heap"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/pkg/config"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
)

// Step is one scheduled story step
type Step struct {
	Index                int            `json:"index"` // position in the script; breaks ties between equal offsets
	At                   time.Duration  `json:"at"`
	Message              string         `json:"message"`
	Reset                bool           `json:"reset,omitempty"`
	Set                  []models.Delta `json:"set,omitempty"`
	ApplyRecommendations bool           `json:"apply_recommendations,omitempty"`
}

// StepQueue is a priority queue of steps ordered by offset, then script order
type StepQueue struct {
	steps []*Step
	mu    sync.RWMutex
}

// NewStepQueue creates a queue holding every step of s
func NewStepQueue(s *config.Story) (*StepQueue, error) {
	q := &StepQueue{steps: make([]*Step, 0, len(s.Steps))}
	for i := range s.Steps {
		src := &s.Steps[i]
		at, err := src.GetAt()
		if err != nil {
			return nil, err
		}
		q.steps = append(q.steps, &Step{
			Index:                i,
			At:                   at,
			Message:              src.Message,
			Reset:                src.Reset,
			Set:                  append([]models.Delta(nil), src.Set...),
			ApplyRecommendations: src.ApplyRecommendations,
		})
	}
	heap.Init(q)
	return q, nil
}

// Len returns the number of steps in the queue
func (q *StepQueue) Len() int {
	return len(q.steps)
}

// Less compares two steps by offset and script position
func (q *StepQueue) Less(i, j int) bool {
	if q.steps[i].At != q.steps[j].At {
		return q.steps[i].At < q.steps[j].At
	}
	return q.steps[i].Index < q.steps[j].Index
}

// Swap swaps two steps in the queue
func (q *StepQueue) Swap(i, j int) {
	q.steps[i], q.steps[j] = q.steps[j], q.steps[i]
}

// Push adds a step to the queue
func (q *StepQueue) Push(x any) {
	q.steps = append(q.steps, x.(*Step))
}

// Pop removes and returns the last step of the heap slice
func (q *StepQueue) Pop() any {
	old := q.steps
	n := len(old)
	step := old[n-1]
	old[n-1] = nil
	q.steps = old[0 : n-1]
	return step
}

// Next removes and returns the next step (thread-safe)
func (q *StepQueue) Next() *Step {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*Step)
}

// Size returns the current queue size (thread-safe)
func (q *StepQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.Len()
}
