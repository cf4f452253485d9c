// Package progress reports batch progress on a terminal bar or as plain
// log lines in CI, and tallies what happened to each page.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Outcome is what a batch run did with one page.
type Outcome int

const (
	Written Outcome = iota
	Unchanged
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Written:
		return "written"
	case Unchanged:
		return "unchanged"
	default:
		return "failed"
	}
}

// Summary totals a finished run.
type Summary struct {
	Written   int
	Unchanged int
	Failed    int
	Failures  []string // "page: error"
	Duration  time.Duration
}

// Err is non-nil when at least one page failed.
func (s Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d page(s) failed", s.Failed)
}

// Print writes the totals, then one line per failure.
func (s Summary) Print(w io.Writer, outDir string) {
	fmt.Fprintf(w, "\n  Pages written:   %d\n", s.Written)
	fmt.Fprintf(w, "  Pages unchanged: %d\n", s.Unchanged)
	fmt.Fprintf(w, "  Pages failed:    %d\n", s.Failed)
	fmt.Fprintf(w, "  Duration:        %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Output:          %s\n", outDir)
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

// Reporter follows a batch run page by page.
type Reporter interface {
	Start(total int)
	Done(page string, outcome Outcome, err error)
	Finish() Summary
}

// NewReporter picks a CIReporter when CI or GITHUB_ACTIONS is set and a
// TerminalReporter otherwise.
func NewReporter(description string) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Out: os.Stderr, Description: description}
	}
	return &TerminalReporter{Description: description}
}

type tally struct {
	start   time.Time
	total   int
	done    int
	summary Summary
}

func (t *tally) begin(total int) {
	t.start = time.Now()
	t.total = total
	t.done = 0
	t.summary = Summary{}
}

func (t *tally) record(page string, outcome Outcome, err error) {
	t.done++
	switch outcome {
	case Written:
		t.summary.Written++
	case Unchanged:
		t.summary.Unchanged++
	default:
		t.summary.Failed++
		t.summary.Failures = append(t.summary.Failures, fmt.Sprintf("%s: %v", page, err))
	}
}

func (t *tally) end() Summary {
	t.summary.Duration = time.Since(t.start)
	return t.summary
}

// TerminalReporter draws a progress bar described by the page in flight.
type TerminalReporter struct {
	Description string
	tally
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int) {
	r.begin(total)
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(r.Description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Done(page string, outcome Outcome, err error) {
	r.record(page, outcome, err)
	if r.bar != nil {
		r.bar.Describe(page)
		_ = r.bar.Set(r.done)
	}
}

func (r *TerminalReporter) Finish() Summary {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	return r.end()
}

// CIReporter logs one line per page.
type CIReporter struct {
	Out         io.Writer
	Description string
	tally
}

func (r *CIReporter) Start(total int) {
	r.begin(total)
	fmt.Fprintf(r.Out, "%s: %d pages\n", r.Description, total)
}

func (r *CIReporter) Done(page string, outcome Outcome, err error) {
	r.record(page, outcome, err)
	fmt.Fprintf(r.Out, "[%d/%d] %s %s\n", r.done, r.total, outcome, page)
}

func (r *CIReporter) Finish() Summary {
	s := r.end()
	fmt.Fprintf(r.Out, "%s: %d written, %d unchanged, %d failed\n", r.Description, s.Written, s.Unchanged, s.Failed)
	return s
}
