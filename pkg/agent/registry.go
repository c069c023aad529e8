package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/crackerjack-go/crackerjack/pkg/issue"
)

// Registry is the process-wide, closed-after-init agent capability table
// (spec §4.6 "Agent registry": "discoverable by IssueKind. Registration is
// closed after initialization to preserve deterministic routing within a
// run").
type Registry struct {
	mu     sync.Mutex
	agents []Agent
	closed bool
}

// NewRegistry returns an empty, open Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an agent to the registry. It fails once the registry has
// been closed, so routing decisions stay deterministic for the rest of the run.
func (r *Registry) Register(a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("agent: registry closed, cannot register %s", a.Capability().AgentID)
	}
	r.agents = append(r.agents, a)
	return nil
}

// Close freezes the registry; no further Register calls will succeed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// BestFor returns the agent with the highest declared confidence for kind,
// breaking ties by agent ID for determinism (spec §4.5 step 2). ok is false
// if no registered agent covers kind at all.
func (r *Registry) BestFor(kind issue.Kind) (Agent, float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type candidate struct {
		agent      Agent
		confidence float64
	}
	var candidates []candidate
	for _, a := range r.agents {
		if c, ok := a.Capability().Confidence[kind]; ok {
			candidates = append(candidates, candidate{agent: a, confidence: c})
		}
	}
	if len(candidates) == 0 {
		return nil, 0, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].confidence != candidates[j].confidence {
			return candidates[i].confidence > candidates[j].confidence
		}
		return candidates[i].agent.Capability().AgentID < candidates[j].agent.Capability().AgentID
	})
	best := candidates[0]
	return best.agent, best.confidence, true
}

// All returns every registered agent, for diagnostics and the coordinator's
// two-tier wave split.
func (r *Registry) All() []Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Agent(nil), r.agents...)
}
