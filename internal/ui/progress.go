package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/brogergvhs/mangapdf/internal/pipeline"
)

// barScale is the bar total; fractions in [0, 1] are mapped onto it.
const barScale = 1000

type statusLine struct {
	msg string
	sev pipeline.Severity
}

// ProgressObserver renders a run as a single mpb bar. Progress statuses are
// shown inline; everything else is held back and printed by Close so bar
// redraws do not interleave with log lines.
type ProgressObserver struct {
	log *Logger
	p   *mpb.Progress
	bar *mpb.Bar

	status atomic.Value
	pages  atomic.Int64
	done   atomic.Int64

	start   time.Time
	elapsed atomic.Int64
	final   atomic.Bool

	mu      sync.Mutex
	pending []statusLine
	success bool
}

func NewProgressObserver(log *Logger, out io.Writer) *ProgressObserver {
	if out == nil {
		out = os.Stdout
	}

	o := &ProgressObserver{
		log:   log,
		start: time.Now(),
		p: mpb.New(
			mpb.WithWidth(52),
			mpb.WithOutput(out),
			mpb.WithRefreshRate(120*time.Millisecond),
		),
	}
	o.status.Store("Starting...")

	o.bar = o.p.New(
		barScale,
		mpb.BarStyle().Rbound("]"),

		mpb.PrependDecorators(
			decor.Any(func(_ decor.Statistics) string {
				return fmt.Sprintf("%-22s", o.status.Load().(string))
			}),
		),

		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncWidth),
			decor.Any(func(_ decor.Statistics) string {
				total := o.pages.Load()
				if total == 0 {
					return ""
				}
				return fmt.Sprintf(" | %d/%d pages", o.done.Load(), total)
			}),
			decor.Any(func(_ decor.Statistics) string {
				if o.final.Load() {
					return fmt.Sprintf(" | %ds", o.elapsed.Load())
				}
				return fmt.Sprintf(" | %ds", int(time.Since(o.start).Seconds()))
			}),
		),
	)

	return o
}

func (o *ProgressObserver) OnStatus(msg string, sev pipeline.Severity) {
	if sev == pipeline.SeverityProgress {
		o.status.Store(msg)
		o.log.Debugf("%s\n", msg)
		return
	}

	o.mu.Lock()
	o.pending = append(o.pending, statusLine{msg: msg, sev: sev})
	if sev == pipeline.SeveritySuccess {
		o.success = true
	}
	o.mu.Unlock()
}

func (o *ProgressObserver) OnCandidateCount(n int) {
	o.pages.Store(int64(n))
}

func (o *ProgressObserver) OnItemProgress(index, total int) {
	if o.final.Load() {
		return
	}

	o.pages.Store(int64(total))
	o.done.Store(int64(index))
}

func (o *ProgressObserver) OnProgressFraction(f float64) {
	if o.final.Load() {
		return
	}

	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	o.bar.SetCurrent(int64(f * barScale))
}

// Close finishes the bar, waits for the last redraw and prints the held back
// statuses. It is safe to call more than once.
func (o *ProgressObserver) Close() {
	if o.final.Swap(true) {
		return
	}

	o.elapsed.Store(int64(time.Since(o.start).Seconds()))

	o.mu.Lock()
	ok := o.success
	lines := o.pending
	o.pending = nil
	o.mu.Unlock()

	if ok {
		o.status.Store("Done")
		o.bar.SetCurrent(barScale)
		o.bar.SetTotal(barScale, true)
	} else {
		o.status.Store("Stopped")
		o.bar.Abort(false)
	}
	o.p.Wait()

	for _, l := range lines {
		switch l.sev {
		case pipeline.SeveritySuccess:
			o.log.Successf("%s\n", l.msg)
		case pipeline.SeverityWarning:
			o.log.Warnf("%s\n", l.msg)
		case pipeline.SeverityError:
			o.log.Errorf("%s\n", l.msg)
		default:
			o.log.Infof("%s\n", l.msg)
		}
	}
}
