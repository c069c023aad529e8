// Package jobcontrol exposes crackerjack's workflow runs to external,
// long-lived collaborators (spec §6 "Job control interface... for the
// MCP/WebSocket collaborator"): submit an Options record, poll a snapshot,
// stream progress events, or cancel a running job.
//
// Grounded on githubnext-gh-aw/pkg/cli/run_watch.go's poll-and-stream loop
// for the shape of a long-running-operation handle, generalized here from
// "watch a GitHub Actions run" to "watch a workflow.Orchestrator run" with
// an explicit per-job event channel instead of a terminal redraw loop.
package jobcontrol

import (
	"context"
	"fmt"
	"sync"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/crackerjack-go/crackerjack/pkg/orchestrator"
	"github.com/google/uuid"
)

var log = logger.New("jobcontrol")

// JobID identifies one submitted run.
type JobID = uuid.UUID

// Event is one progress notification (spec §6: "{job_id, phase,
// progress∈[0,1], status, details: map}"). The controller emits one when a
// job starts and one when it finishes; it emits no per-phase or
// per-hook/test events.
type Event struct {
	JobID    JobID
	Phase    string
	Progress float64
	Status   string
	Details  map[string]any
}

// Snapshot is the point-in-time state returned by Status.
type Snapshot struct {
	JobID   JobID
	Status  string
	Result  *orchestrator.WorkflowResult
	Err     string
	Running bool
}

// Runner is the subset of *orchestrator.Orchestrator the controller depends
// on, kept as an interface so tests can substitute a fake without spinning
// up real hooks/tests.
type Runner interface {
	Run(ctx context.Context, opts orchestrator.Options) (orchestrator.WorkflowResult, error)
}

type job struct {
	mu     sync.Mutex
	id     JobID
	cancel context.CancelFunc
	events chan Event
	done   bool
	result orchestrator.WorkflowResult
	err    error
}

// Controller tracks submitted jobs and fans out their progress (spec §6:
// "Guaranteed ordering per job_id" — each job owns exactly one buffered
// channel, written to only by that job's own goroutine).
type Controller struct {
	runner Runner

	mu   sync.Mutex
	jobs map[JobID]*job
}

// New constructs a Controller that submits every job to runner.
func New(runner Runner) *Controller {
	return &Controller{runner: runner, jobs: map[JobID]*job{}}
}

// Submit starts opts running in the background and returns its JobID
// immediately (spec §6: "submit(options) -> job_id").
func (c *Controller) Submit(opts orchestrator.Options) (JobID, error) {
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	j := &job{id: id, cancel: cancel, events: make(chan Event, 64)}

	c.mu.Lock()
	c.jobs[id] = j
	c.mu.Unlock()

	go c.run(ctx, j, opts)
	return id, nil
}

func (c *Controller) run(ctx context.Context, j *job, opts orchestrator.Options) {
	j.emit(Event{JobID: j.id, Phase: "start", Progress: 0, Status: "running"})

	result, err := c.runner.Run(ctx, opts)

	j.mu.Lock()
	j.done = true
	j.result = result
	j.err = err
	j.mu.Unlock()

	status := string(result.Status)
	if err != nil {
		status = "error"
		log.Printf("job %s failed: %v", j.id, err)
	}
	j.emit(Event{JobID: j.id, Phase: "finish", Progress: 1, Status: status})
	close(j.events)
}

// Status returns job_id's current snapshot (spec §6: "status(job_id) -> snapshot").
func (c *Controller) Status(id JobID) (Snapshot, error) {
	j, err := c.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	snap := Snapshot{JobID: id, Running: !j.done}
	if j.done {
		snap.Result = &j.result
		snap.Status = string(j.result.Status)
		if j.err != nil {
			snap.Err = j.err.Error()
		}
	} else {
		snap.Status = "running"
	}
	return snap, nil
}

// ProgressStream returns job_id's event channel (spec §6:
// "progress_stream(job_id) -> channel<Event>"). The channel is closed once
// the job finishes; callers range over it rather than polling.
func (c *Controller) ProgressStream(id JobID) (<-chan Event, error) {
	j, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	return j.events, nil
}

// Cancel requests job_id's run stop at its next cancellation checkpoint
// (spec §5 "Cancellation": "each worker polls it at task boundaries").
func (c *Controller) Cancel(id JobID) error {
	j, err := c.lookup(id)
	if err != nil {
		return err
	}
	j.cancel()
	return nil
}

func (c *Controller) lookup(id JobID) (*job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[id]
	if !ok {
		return nil, crkerr.Wrapf(crkerr.ClassConfig, "unknown job %s", fmt.Sprint(id))
	}
	return j, nil
}

// emit sends ev on the job's own channel, dropping it rather than blocking
// forever if a slow/absent consumer has let the buffer fill — job
// completion must never deadlock on an unread progress stream.
func (j *job) emit(ev Event) {
	select {
	case j.events <- ev:
	default:
		log.Printf("job %s progress channel full, dropping event %s", j.id, ev.Phase)
	}
}
