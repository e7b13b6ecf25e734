package expert

import (
	"sync"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/logging"
)

// Registry is the process-wide expert pool: one instance per configuration,
// constructed at startup and shared by reference across concurrent queries.
// It owns two indices, by name (unique) and by capability (insertion
// ordered), and keeps them consistent under concurrent registration.
// Registration is idempotent per (expert, capability) pair.
type Registry struct {
	mu           sync.RWMutex
	byName       map[string]*Expert
	nameOrder    []string
	byCapability map[core.Capability][]*Expert
	capOrder     []core.Capability
	logger       logging.Logger
}

// NewRegistry constructs an empty Registry. A nil logger is substituted with
// a NoOpLogger.
func NewRegistry(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Registry{
		byName:       make(map[string]*Expert),
		byCapability: make(map[core.Capability][]*Expert),
		logger:       logger,
	}
}

// Register inserts or overwrites the expert under its name and appends it to
// the index list of every capability it holds, unless already present.
// Registration order is preserved for tie-breaking and is not affected by
// re-registration. Safe to call from overlapping in-flight queries.
func (r *Registry) Register(e *Expert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerLocked(e)
}

// Reindex refreshes the capability indices for an expert whose capability
// set has grown via Evolve. It is the same idempotent operation as Register;
// the separate name documents intent at call sites.
func (r *Registry) Reindex(e *Expert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerLocked(e)
}

func (r *Registry) registerLocked(e *Expert) {
	name := e.Name()
	if _, exists := r.byName[name]; !exists {
		r.nameOrder = append(r.nameOrder, name)
	}
	r.byName[name] = e

	for _, c := range e.Capabilities() {
		list, known := r.byCapability[c]
		if !known {
			r.capOrder = append(r.capOrder, c)
		}
		if !containsExpert(list, name) {
			r.byCapability[c] = append(list, e)
		}
	}

	r.logger.Info("expert registered", "expert", name, "expertise", e.Capabilities())
}

func containsExpert(list []*Expert, name string) bool {
	for _, e := range list {
		if e.Name() == name {
			return true
		}
	}
	return false
}

// FindByCapability returns the registered experts for an exact capability
// key in registration order. Never nil; empty when no expert holds the
// capability.
func (r *Registry) FindByCapability(c core.Capability) []*Expert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byCapability[c]
	out := make([]*Expert, len(list))
	copy(out, list)
	return out
}

// AllExperts returns a snapshot of all registered experts in registration
// order.
func (r *Registry) AllExperts() []*Expert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Expert, 0, len(r.nameOrder))
	for _, name := range r.nameOrder {
		out = append(out, r.byName[name])
	}
	return out
}

// AllCapabilities returns a snapshot of every known capability in first-seen
// order.
func (r *Registry) AllCapabilities() []core.Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Capability, len(r.capOrder))
	copy(out, r.capOrder)
	return out
}

// FindBestMatch selects the expert whose capabilities match the task text
// most often. The scan follows registration order and a new best is only
// taken on a strictly greater score, so ties resolve to the
// first-registered expert. Returns nil when the maximum score is zero.
func (r *Registry) FindBestMatch(taskText string) *Expert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Expert
	maxScore := 0
	for _, name := range r.nameOrder {
		e := r.byName[name]
		if score := e.Score(taskText); score > maxScore {
			maxScore = score
			best = e
		}
	}
	return best
}
