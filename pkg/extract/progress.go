package extract

// TaskID identifies a task of a ProgressReporter.
type TaskID int

// ProgressReporter receives progress events of an extraction. Every begun
// task ends with exactly one Abort or Complete.
type ProgressReporter interface {
	BeginTask(label string) TaskID
	SetTotal(id TaskID, total int)
	Advance(id TaskID, n int)
	Abort(id TaskID, err error)
	Complete(id TaskID)
}

// Branch tells how a tile was produced.
type Branch int

const (
	// BranchRead tiles were read from the source and masked.
	BranchRead Branch = iota
	// BranchFill tiles lay entirely outside the area and were filled.
	BranchFill
)

func (b Branch) String() string {
	if b == BranchFill {
		return "fill"
	}
	return "read"
}

// TileObserver is notified after each tile is written.
type TileObserver interface {
	ObserveTile(service string, branch Branch)
}

type nopProgress struct{}

func (nopProgress) BeginTask(string) TaskID { return 0 }
func (nopProgress) SetTotal(TaskID, int)    {}
func (nopProgress) Advance(TaskID, int)     {}
func (nopProgress) Abort(TaskID, error)     {}
func (nopProgress) Complete(TaskID)         {}

type nopObserver struct{}

func (nopObserver) ObserveTile(string, Branch) {}

// LabelWidth is the maximum length of a task label in runes.
const LabelWidth = 32

// Label returns the progress label of a coverage, shortened to LabelWidth
// runes with a trailing ellipsis.
func Label(service, coverage string) string {
	s := []rune(service + "_" + coverage)
	if len(s) <= LabelWidth {
		return string(s)
	}
	return string(s[:LabelWidth-1]) + "…"
}
