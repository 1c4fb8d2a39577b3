package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/ytget/video-thumb/internal/model"
)

// ConsoleReporter renders download progress on a terminal. In plain mode it
// rewrites a single text line instead of drawing a bar.
type ConsoleReporter struct {
	out   io.Writer
	plain bool

	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	taskID string
	active bool
}

// NewConsoleReporter creates a reporter writing to out
func NewConsoleReporter(out io.Writer, plain bool) *ConsoleReporter {
	return &ConsoleReporter{out: out, plain: plain}
}

// OnDownloadUpdate is a download.Service update callback
func (r *ConsoleReporter) OnDownloadUpdate(task *model.DownloadTask) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID != r.taskID {
		r.reset()
		r.taskID = task.ID
	}

	switch {
	case task.Status == model.TaskStatusDownloading:
		r.active = true
		if r.plain {
			fmt.Fprint(r.out, clearLine+progressText(task))
			return
		}
		if r.bar == nil {
			r.bar = r.newBar(task.TotalBytes)
		}
		if task.ETASec > 0 {
			r.bar.Describe(fmt.Sprintf("%s (ETA %s)", DownloadBarLabel, task.GetETAString()))
		}
		r.bar.Set64(task.DownloadedBytes)

	case task.Status.IsFinished():
		if !r.active {
			return
		}
		r.active = false
		if !task.Status.IsSuccess() {
			if r.bar != nil {
				r.bar.Clear()
			}
			fmt.Fprintln(r.out)
			return
		}
		if r.plain {
			fmt.Fprintln(r.out, clearLine+task.ProgressLine())
		} else if r.bar != nil {
			r.bar.Finish()
			fmt.Fprintln(r.out)
		}
	}
}

// progressText is the plain progress line plus speed and ETA once known
func progressText(task *model.DownloadTask) string {
	line := task.ProgressLine()
	if task.Speed == "" {
		return line
	}
	return fmt.Sprintf("%s, Speed: %s, ETA: %s", line, task.Speed, task.GetETAString())
}

func (r *ConsoleReporter) newBar(total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(DownloadBarLabel),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(BarWidth),
		progressbar.OptionThrottle(BarThrottle),
		progressbar.OptionSpinnerType(BarSpinnerType),
	)
}

func (r *ConsoleReporter) reset() {
	r.bar = nil
	r.active = false
}
