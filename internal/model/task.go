package model

import (
	"fmt"
	"strings"
	"time"
)

// BytesPerMB is the divisor used for the MB figures in progress lines
const BytesPerMB = 1048576

// DownloadTask represents a single download of a remote file
type DownloadTask struct {
	ID              string
	URL             string
	FileName        string // last path segment of URL
	OutputPath      string // path to downloaded file
	Status          TaskStatus
	DownloadedBytes int64
	TotalBytes      int64   // -1 if the server sent no Content-Length
	Progress        float64 // 0.0 to 1.0
	Percent         int     // 0 to 100
	Speed           string  // human readable speed (e.g., "1.2 MB/s")
	ETASec          int     // ETA in seconds, -1 if unknown
	LastError       string  // last error message if any
	Reused          bool    // local file already existed, nothing was fetched
	StartedAt       time.Time
	FinishedAt      time.Time
}

// ThumbnailTask represents a single frame extraction
type ThumbnailTask struct {
	ID         string
	InputPath  string
	OutputPath string
	Status     TaskStatus
	LastError  string
	Width      int // decoded thumbnail width in pixels
	Height     int // decoded thumbnail height in pixels
	Video      *VideoInfo
	StartedAt  time.Time
	FinishedAt time.Time
}

// VideoInfo holds what ffprobe reported about the source video
type VideoInfo struct {
	Duration time.Duration
	Width    int
	Height   int
	Codec    string
}

// String returns a short description like "1280x720 h264, 9m56s"
func (v *VideoInfo) String() string {
	if v == nil {
		return "unknown"
	}
	var b strings.Builder
	if v.Width > 0 && v.Height > 0 {
		b.WriteString(fmt.Sprintf("%dx%d", v.Width, v.Height))
	}
	if v.Codec != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(v.Codec)
	}
	if v.Duration > 0 {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.Duration.Round(time.Second).String())
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// Elapsed returns the time between start and finish, or since start if still running
func (dt *DownloadTask) Elapsed() time.Duration {
	return elapsed(dt.StartedAt, dt.FinishedAt)
}

// Elapsed returns the time between start and finish, or since start if still running
func (tt *ThumbnailTask) Elapsed() time.Duration {
	return elapsed(tt.StartedAt, tt.FinishedAt)
}

func elapsed(start, finish time.Time) time.Duration {
	if start.IsZero() {
		return 0
	}
	if finish.IsZero() {
		return time.Since(start)
	}
	return finish.Sub(start)
}

// GetETAString returns ETA formatted as hh:mm:ss, or "—" if unknown
func (dt *DownloadTask) GetETAString() string {
	if dt.ETASec <= 0 {
		return "—"
	}

	hours := dt.ETASec / 3600
	minutes := (dt.ETASec % 3600) / 60
	seconds := dt.ETASec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// ProgressLine renders the single-line console progress report.
// Total and percent are shown as "?" when the size is unknown.
func (dt *DownloadTask) ProgressLine() string {
	current := fmt.Sprintf("%.2f", float64(dt.DownloadedBytes)/BytesPerMB)
	total, percent := "?", "?"
	if dt.TotalBytes > 0 {
		total = fmt.Sprintf("%.2f", float64(dt.TotalBytes)/BytesPerMB)
		percent = fmt.Sprintf("%.2f", float64(dt.DownloadedBytes)/float64(dt.TotalBytes)*100)
	}
	return fmt.Sprintf("Progress: %sMB / %sMB  ( %s%% ), Elapsed: %.2fs",
		current, total, percent, dt.Elapsed().Seconds())
}
