package coordinator

import (
	"sort"

	"github.com/crackerjack-go/crackerjack/pkg/agent"
	"github.com/crackerjack-go/crackerjack/pkg/issue"
)

// route groups issues by kind, asks reg for the best agent per kind, and
// gates dispatch on threshold (spec §4.5 "Routing algorithm", steps 1-3). It
// does no I/O, so it is directly testable for the determinism invariant in
// spec §8 property 6: the same registry and issue set always produce the
// same Plan.
//
// Every Issue carries exactly one Kind (spec §3), so cross-cutting conflicts
// only ever arise between agents competing for the same kind, which BestFor
// already resolves by confidence with an AgentID tie-break; there is no
// separate per-issue tie-break to perform here.
func route(issues []issue.Issue, reg *agent.Registry, threshold float64) Plan {
	byKind := map[issue.Kind][]issue.Issue{}
	for _, iss := range issues {
		byKind[iss.Kind] = append(byKind[iss.Kind], iss)
	}

	kinds := make([]issue.Kind, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	var plan Plan
	for _, kind := range kinds {
		kindIssues := byKind[kind]

		if kind == issue.KindUnknown {
			for _, iss := range kindIssues {
				plan.Unfixed = append(plan.Unfixed, Unfixed{Issue: iss, Reason: ReasonNoAgent})
			}
			continue
		}

		a, confidence, ok := reg.BestFor(kind)
		if !ok {
			for _, iss := range kindIssues {
				plan.Unfixed = append(plan.Unfixed, Unfixed{Issue: iss, Reason: ReasonNoAgent})
			}
			continue
		}
		if confidence < threshold {
			for _, iss := range kindIssues {
				plan.Unfixed = append(plan.Unfixed, Unfixed{Issue: iss, Reason: ReasonLowConfidence})
			}
			continue
		}

		plan.Assignments = append(plan.Assignments, Assignment{Agent: a, Issues: kindIssues})
	}

	sort.SliceStable(plan.Assignments, func(i, j int) bool {
		return plan.Assignments[i].Agent.Capability().AgentID < plan.Assignments[j].Agent.Capability().AgentID
	})

	return plan
}

// isFormattingKind reports whether kind belongs to the formatting tier that
// must run after every other agent in an iteration, so it normalizes
// whatever the other agents just produced (spec §4.5 step 4).
func isFormattingKind(kind issue.Kind) bool {
	return kind == issue.KindFormatting || kind == issue.KindImportOrder
}

func (p Plan) tiers() (primary, formatting []Assignment) {
	for _, a := range p.Assignments {
		if len(a.Issues) > 0 && isFormattingKind(a.Issues[0].Kind) {
			formatting = append(formatting, a)
		} else {
			primary = append(primary, a)
		}
	}
	return primary, formatting
}
