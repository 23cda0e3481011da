package workflow

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	// ErrStepLocked is returned by Navigate for a target the gate rejects.
	// State is left untouched.
	ErrStepLocked = errors.New("step is not accessible")

	// ErrStepOutOfRange is returned for indices outside [0, N).
	ErrStepOutOfRange = errors.New("step index out of range")

	// ErrStaleResult is returned by RecordResult when the supplied epoch no
	// longer matches the aggregate, i.e. the workflow was reset while the
	// work was in flight. The stale result is discarded.
	ErrStaleResult = errors.New("stale result discarded")
)

// Summary is a read-only derived view of the workflow, recomputed on
// demand. It is for display only and never drives engine logic.
type Summary struct {
	CurrentStepIndex int       `json:"current_step_index"`
	CompletedCount   int       `json:"completed_count"`
	TotalSteps       int       `json:"total_steps"`
	TotalLogCount    int       `json:"total_log_count"`
	Epoch            uint64    `json:"epoch"`
	LastModified     time.Time `json:"last_modified"`
}

// Controller owns the mutable workflow state for exactly one session and
// is the only writer to its stores. All operations are synchronous; the
// controller never mutates state on its own (no timers, no background
// work). A mutex serializes requests arriving on the same session.
type Controller struct {
	mu sync.Mutex

	registry *Registry
	preds    PredicateSet

	current      int
	completed    map[int]bool
	results      *resultStore
	logs         *logStore
	epoch        uint64
	lastModified time.Time

	now func() time.Time // test override
}

// NewController creates a controller at step 0 with empty state.
func NewController(registry *Registry, preds PredicateSet) *Controller {
	return &Controller{
		registry:     registry,
		preds:        preds,
		completed:    make(map[int]bool),
		results:      newResultStore(),
		logs:         newLogStore(),
		lastModified: time.Now(),
		now:          time.Now,
	}
}

// Registry exposes the pipeline definition this controller runs.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// Epoch returns the current epoch. Callers dispatching asynchronous work
// snapshot it and pass it back to RecordResult.
func (c *Controller) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Current returns the current step index.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Completed returns the completed step indices in ascending order.
func (c *Controller) Completed() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.completed))
	for i := range c.completed {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Navigate moves the current step pointer to target if the gate permits.
// A rejected move returns ErrStepLocked and changes nothing; logs are
// never deleted by navigation, the active log view merely switches.
func (c *Controller) Navigate(target int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if target < 0 || target >= c.registry.Len() {
		return fmt.Errorf("navigate to %d: %w", target, ErrStepOutOfRange)
	}
	if !Accessible(target, c.current, c.completed) {
		return fmt.Errorf("navigate to %d: %w", target, ErrStepLocked)
	}
	c.current = target
	c.touch()
	return nil
}

// RecordResult stores the result for a step and re-evaluates completion.
// epoch must be the value of Epoch() at dispatch time; a mismatch means a
// reset happened in between and the result is rejected with ErrStaleResult.
// Results with status error are stored for display but never complete the
// step. Completion is idempotent.
func (c *Controller) RecordResult(index int, epoch uint64, res StepResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= c.registry.Len() {
		return fmt.Errorf("record result for %d: %w", index, ErrStepOutOfRange)
	}
	if epoch != c.epoch {
		return fmt.Errorf("record result for %d (epoch %d, current %d): %w",
			index, epoch, c.epoch, ErrStaleResult)
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = c.now()
	}
	c.results.set(index, &res)

	if c.preds.Eval(c.registry.Kind(index), &res) {
		c.completed[index] = true
	}
	c.touch()
	return nil
}

// Result returns the last recorded result for a step, or ok=false when the
// step has no result yet.
func (c *Controller) Result(index int) (*StepResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results.get(index)
}

// Log appends an engine-timestamped entry to a step's log stream. It never
// fails; out-of-range indices are dropped silently so a late log line can
// never break the pipeline. Logs grow until ClearLogs or Reset.
func (c *Controller) Log(index int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= c.registry.Len() {
		return
	}
	c.logs.append(index, LogEntry{Timestamp: c.now(), Message: message})
	c.touch()
}

// Logs returns the log sequence for a step in append order.
func (c *Controller) Logs(index int) []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logs.get(index)
}

// ClearLogs drops the log sequence for one step. Other steps' logs are
// untouched.
func (c *Controller) ClearLogs(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs.clearStep(index)
	c.touch()
}

// Reset atomically returns the workflow to its initial state and bumps the
// epoch so in-flight results recorded against the old epoch are rejected.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = 0
	c.completed = make(map[int]bool)
	c.results.clear()
	c.logs.clearAll()
	c.epoch++
	c.touch()
}

// Summary recomputes the derived view. It is never cached.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summary{
		CurrentStepIndex: c.current,
		CompletedCount:   len(c.completed),
		TotalSteps:       c.registry.Len(),
		TotalLogCount:    c.logs.total(),
		Epoch:            c.epoch,
		LastModified:     c.lastModified,
	}
}

func (c *Controller) touch() {
	c.lastModified = c.now()
}
