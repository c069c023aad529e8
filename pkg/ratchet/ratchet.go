// Package ratchet implements crackerjack's monotonic coverage floor (spec
// §4.9, C9): a persisted baseline that can only increase, milestone
// crossings at each multiple of 10, and regression detection.
//
// Grounded on tim-coutinho-agentops's cli/internal/ratchet package for the
// concept and package name (the teacher, githubnext-gh-aw, has no coverage
// concept at all) and on githubnext-gh-aw's pkg/parser/schema.go for the
// santhosh-tekuri/jsonschema/v6 compile-once-validate-many idiom, applied
// here to ratchet.json instead of workflow frontmatter.
package ratchet

import (
	_ "embed"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

var log = logger.New("ratchet")

//go:embed schema.json
var ratchetSchemaJSON string

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaOnce sync.Once
	compiledSchemaErr  error
)

func schema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		var doc any
		if err := json.Unmarshal([]byte(ratchetSchemaJSON), &doc); err != nil {
			compiledSchemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("ratchet.json", doc); err != nil {
			compiledSchemaErr = err
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("ratchet.json")
	})
	return compiledSchema, compiledSchemaErr
}

// HistoryEntry is one recorded coverage observation.
type HistoryEntry struct {
	Timestamp time.Time `json:"ts"`
	Coverage  float64   `json:"coverage"`
}

// Ratchet is the persisted monotonic coverage floor (spec §3, §4.9).
type Ratchet struct {
	Baseline   float64        `json:"baseline"`
	History    []HistoryEntry `json:"history"`
	Milestones []int          `json:"milestones"`
	Target     float64        `json:"-"`
	path       string
}

// milestoneSet is the fixed set of coverage percentages that count as
// milestones (spec §4.9: "{10,20,...,100}").
func milestoneSet() []int {
	ms := make([]int, 0, 10)
	for m := 10; m <= 100; m += 10 {
		ms = append(ms, m)
	}
	return ms
}

// Result is returned from Update, reporting what happened to the ratchet.
type Result struct {
	NewBaseline       float64
	MilestonesCrossed []int
	Regression        bool
}

// Load reads a ratchet from path, validating it against the embedded JSON
// schema. A missing file yields a fresh, zero-value ratchet (seeded on first
// Update). A file that fails to parse or validate is logged as a warning and
// replaced with a fresh ratchet rather than failing the run (spec §4.9:
// "never fatal, since losing ratchet history is annoying, not unsafe").
func Load(path string, target float64) *Ratchet {
	r := &Ratchet{path: path, Target: target, Milestones: []int{}}

	data, err := os.ReadFile(path)
	if err != nil {
		return r
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		log.Printf("ratchet file %s is not valid JSON, resetting: %v", path, err)
		return r
	}

	sch, err := schema()
	if err != nil {
		log.Printf("ratchet schema failed to compile, skipping validation: %v", err)
	} else if err := sch.Validate(parsed); err != nil {
		log.Printf("ratchet file %s failed schema validation, resetting: %v", path, err)
		return &Ratchet{path: path, Target: target, Milestones: []int{}}
	}

	if err := json.Unmarshal(data, r); err != nil {
		log.Printf("ratchet file %s failed to decode, resetting: %v", path, err)
		return &Ratchet{path: path, Target: target, Milestones: []int{}}
	}
	r.path = path
	r.Target = target
	return r
}

// Update applies a new observed coverage value c to the ratchet (spec §4.9
// policy): if c > baseline, the baseline advances and any newly crossed
// milestones are recorded; if c < baseline, it's a regression and the
// baseline is left unchanged; c == baseline is a no-op success.
func (r *Ratchet) Update(c float64) Result {
	result := Result{NewBaseline: r.Baseline}

	if len(r.History) == 0 && r.Baseline == 0 {
		// First-ever observation seeds the baseline (spec §4.9).
		r.Baseline = c
		result.NewBaseline = c
		r.recordHistory(c)
		result.MilestonesCrossed = r.crossMilestones(0, c)
		return result
	}

	switch {
	case c > r.Baseline:
		old := r.Baseline
		r.Baseline = c
		result.NewBaseline = c
		result.MilestonesCrossed = r.crossMilestones(old, c)
		r.recordHistory(c)
	case c < r.Baseline:
		result.Regression = true
		r.recordHistory(c)
	default:
		r.recordHistory(c)
	}
	return result
}

func (r *Ratchet) recordHistory(c float64) {
	r.History = append(r.History, HistoryEntry{Timestamp: time.Now(), Coverage: c})
}

// crossMilestones returns every milestone m where old < m <= new, appending
// newly crossed ones to r.Milestones (deduplicated).
func (r *Ratchet) crossMilestones(old, newVal float64) []int {
	var crossed []int
	existing := make(map[int]bool, len(r.Milestones))
	for _, m := range r.Milestones {
		existing[m] = true
	}
	for _, m := range milestoneSet() {
		if old < float64(m) && float64(m) <= newVal && !existing[m] {
			crossed = append(crossed, m)
			r.Milestones = append(r.Milestones, m)
			existing[m] = true
		}
	}
	return crossed
}

// Save flushes the ratchet to its path as a whole-file JSON write.
func (r *Ratchet) Save() error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "marshal ratchet: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "write ratchet file: %w", err)
	}
	return nil
}
