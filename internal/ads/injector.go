package ads

import (
	"sync"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

// MountPlan tells the rendering adapter what work remains for a slot.
// AttachScript is true only the first time a provider's script is needed on
// the page.
type MountPlan struct {
	Instructions RenderInstructions `json:"instructions"`
	AttachScript bool               `json:"attach_script"`
}

// Injector tracks which ad slots and provider scripts are already mounted so
// re-entrant mounting is idempotent.
type Injector struct {
	mu          sync.Mutex
	mounted     map[string]bool // by slot id
	scripts     map[string]bool // by script URL
	attempts    map[string]int
	maxAttempts int
	retryDelay  time.Duration
}

func NewInjector() *Injector {
	return &Injector{
		mounted:     map[string]bool{},
		scripts:     map[string]bool{},
		attempts:    map[string]int{},
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
}

// Mount registers a slot for injection. The second return is false when the
// slot was already mounted, in which case no work must be performed.
func (in *Injector) Mount(ri RenderInstructions) (MountPlan, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.mounted[ri.SlotID] {
		return MountPlan{}, false
	}
	in.mounted[ri.SlotID] = true

	plan := MountPlan{Instructions: ri}
	if ri.ScriptURL != "" && !in.scripts[ri.ScriptURL] {
		in.scripts[ri.ScriptURL] = true
		plan.AttachScript = true
	}
	return plan, true
}

// RetryAfter reports whether a "script not yet ready" race for the slot may
// be retried, and after what delay. Retries are bounded: once the attempt
// budget is spent the slot falls back to its static placeholder.
func (in *Injector) RetryAfter(slotID string) (time.Duration, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.attempts[slotID] >= in.maxAttempts {
		return 0, false
	}
	in.attempts[slotID]++
	return in.retryDelay, true
}
