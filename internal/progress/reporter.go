package progress

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/digital-idiot/SoilMatrix/pkg/extract"
)

// Options configures the progress reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration

	// Transient clears the progress line of a task once it completes
	// instead of leaving a summary behind.
	Transient bool

	// Disabled turns every method into a no-op.
	Disabled bool
}

type task struct {
	id        extract.TaskID
	label     string
	total     atomic.Int64
	completed atomic.Int64
	startTime time.Time
}

// Reporter outputs human-readable progress information for extraction
// tasks. It implements extract.ProgressReporter.
type Reporter struct {
	opts Options

	mu      sync.Mutex
	tasks   map[extract.TaskID]*task
	nextID  extract.TaskID
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
}

var _ extract.ProgressReporter = (*Reporter)(nil)

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		tasks:  make(map[extract.TaskID]*task),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins refreshing the progress display.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opts.Disabled || r.started || r.stopped {
		return
	}
	r.started = true
	go r.updateLoop()
}

// Stop stops the progress reporter and waits for the display loop to exit.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.mu.Unlock()

	close(r.stopCh)
	if started {
		<-r.doneCh
	}
}

// BeginTask registers a task and prints its header.
func (r *Reporter) BeginTask(label string) extract.TaskID {
	if r.opts.Disabled {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	t := &task{id: r.nextID, label: label, startTime: time.Now()}
	r.tasks[t.id] = t

	fmt.Fprintf(r.opts.Output, "[soilmatrix] Extracting: %s\n", label)
	return t.id
}

// SetTotal sets the number of tiles of a task.
func (r *Reporter) SetTotal(id extract.TaskID, total int) {
	if t := r.task(id); t != nil {
		t.total.Store(int64(total))
	}
}

// Advance marks n more tiles of a task as written.
func (r *Reporter) Advance(id extract.TaskID, n int) {
	if t := r.task(id); t != nil {
		t.completed.Add(int64(n))
	}
}

// Complete finishes a task successfully.
func (r *Reporter) Complete(id extract.TaskID) {
	t := r.finish(id)
	if t == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opts.Transient {
		fmt.Fprint(r.opts.Output, "\r\033[K")
		return
	}
	total := t.total.Load()
	fmt.Fprintf(r.opts.Output, "\r[soilmatrix] %s: 100.0%% | %d/%d tiles | Complete! (%s)    \n",
		t.label,
		total,
		total,
		formatDuration(time.Since(t.startTime)),
	)
}

// Abort finishes a task that failed.
func (r *Reporter) Abort(id extract.TaskID, err error) {
	t := r.finish(id)
	if t == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.opts.Output, "\r[soilmatrix] %s: aborted after %d/%d tiles: %v    \n",
		t.label,
		t.completed.Load(),
		t.total.Load(),
		err,
	)
}

func (r *Reporter) task(id extract.TaskID) *task {
	if r.opts.Disabled {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[id]
}

func (r *Reporter) finish(id extract.TaskID) *task {
	if r.opts.Disabled {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tasks[id]
	delete(r.tasks, id)
	return t
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress of every running task.
func (r *Reporter) printProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]extract.TaskID, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		t := r.tasks[id]
		total := t.total.Load()
		completed := t.completed.Load()
		if total == 0 {
			continue
		}

		percent := float64(completed) / float64(total) * 100
		eta := "calculating..."
		if completed > 0 {
			elapsed := time.Since(t.startTime)
			remaining := time.Duration(float64(elapsed) / float64(completed) * float64(total-completed))
			eta = formatDuration(remaining)
		}

		fmt.Fprintf(r.opts.Output, "\r[soilmatrix] %s: %.1f%% | %d/%d tiles | ETA: %s    ",
			t.label,
			percent,
			completed,
			total,
			eta,
		)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// Nop is a reporter that discards every event.
type Nop struct{}

var _ extract.ProgressReporter = Nop{}

func (Nop) BeginTask(string) extract.TaskID { return 0 }
func (Nop) SetTotal(extract.TaskID, int)    {}
func (Nop) Advance(extract.TaskID, int)     {}
func (Nop) Abort(extract.TaskID, error)     {}
func (Nop) Complete(extract.TaskID)         {}
