// Package pipeline chains the download, thumbnail and display steps of one run.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/ytget/video-thumb/internal/download"
	"github.com/ytget/video-thumb/internal/model"
	"github.com/ytget/video-thumb/internal/thumbnail"
	"github.com/ytget/video-thumb/internal/ui"
)

// Result collects what each step produced
type Result struct {
	Download     *model.DownloadTask
	Thumbnail    *model.ThumbnailTask
	Displayed    bool
	DisplayError error
}

// Runner runs the download, thumbnail and display steps for a single URL
type Runner struct {
	downloader download.Downloader
	extractor  thumbnail.Extractor
	displayer  ui.Displayer
	progress   func(*model.DownloadTask)
	out        io.Writer
	log        logrus.FieldLogger
}

// NewRunner wires the steps. displayer may be nil to skip displaying;
// progress may be nil to skip progress output. The runner installs itself as
// the downloader's update callback.
func NewRunner(d download.Downloader, e thumbnail.Extractor, displayer ui.Displayer,
	progress func(*model.DownloadTask), out io.Writer, log logrus.FieldLogger) *Runner {
	r := &Runner{
		downloader: d,
		extractor:  e,
		displayer:  displayer,
		progress:   progress,
		out:        out,
		log:        log,
	}
	d.SetUpdateCallback(r.onDownloadUpdate)
	return r
}

// Run processes url. A display failure does not fail the run; it is
// reported in the result.
func (r *Runner) Run(ctx context.Context, url string) (*Result, error) {
	res := &Result{}

	task, err := r.downloader.Download(ctx, url)
	res.Download = task
	if err != nil {
		return res, fmt.Errorf("download: %w", err)
	}

	if task.Reused {
		fmt.Fprintf(r.out, "Detected file at %s already exists, using downloaded version\n", task.OutputPath)
	} else {
		fmt.Fprintf(r.out, "Downloaded %s in %.2fs. Saved to %s\n",
			humanize.Bytes(uint64(task.DownloadedBytes)), task.Elapsed().Seconds(), task.OutputPath)
	}

	fmt.Fprintln(r.out, "Processing video file: Extracting thumbnail.")
	thumb, err := r.extractor.Extract(ctx, task.OutputPath)
	res.Thumbnail = thumb
	if err != nil {
		return res, fmt.Errorf("thumbnail: %w", err)
	}
	if thumb.Video != nil {
		fmt.Fprintf(r.out, "Source video: %s\n", thumb.Video)
	}
	fmt.Fprintf(r.out, "Video Processed! Thumbnail (%dx%d) saved to %s in %.2fs\n",
		thumb.Width, thumb.Height, thumb.OutputPath, thumb.Elapsed().Seconds())

	if r.displayer == nil {
		return res, nil
	}

	fmt.Fprintln(r.out, "Opening thumbnail...")
	if err := r.displayer.Display(ctx, thumb.OutputPath); err != nil {
		r.log.WithError(err).WithField("path", thumb.OutputPath).Warn("could not display thumbnail")
		res.DisplayError = err
		return res, nil
	}
	res.Displayed = true
	return res, nil
}

func (r *Runner) onDownloadUpdate(task *model.DownloadTask) {
	if task.Status == model.TaskStatusStarting {
		fmt.Fprintf(r.out, "Downloading file from %s\n", task.URL)
	}
	if r.progress != nil {
		r.progress(task)
	}
}
