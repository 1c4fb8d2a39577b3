package download

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ytget/video-thumb/internal/model"
)

// progressWriter counts bytes flowing into the local file and pushes
// throttled task updates.
type progressWriter struct {
	service    *Service
	task       *model.DownloadTask
	written    int64
	lastNotify time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.written += int64(len(p))

	now := time.Now()
	if now.Sub(pw.lastNotify) < pw.service.progressInterval {
		pw.service.tasksMutex.Lock()
		pw.task.DownloadedBytes = pw.written
		pw.service.tasksMutex.Unlock()
		return len(p), nil
	}
	pw.lastNotify = now
	pw.service.updateTaskProgress(pw.task, pw.written, now)
	return len(p), nil
}

// updateTaskProgress recomputes percent, speed and ETA and notifies listeners
func (s *Service) updateTaskProgress(task *model.DownloadTask, downloaded int64, now time.Time) {
	s.tasksMutex.Lock()
	task.DownloadedBytes = downloaded

	if task.TotalBytes > 0 {
		progress := float64(downloaded) / float64(task.TotalBytes)
		if progress > 1.0 {
			progress = 1.0
		}
		task.Progress = progress
		task.Percent = int(progress * 100)
	}

	elapsed := now.Sub(task.StartedAt).Seconds()
	if elapsed > 0 {
		bytesPerSecond := float64(downloaded) / elapsed
		task.Speed = humanize.Bytes(uint64(bytesPerSecond)) + "/s"
		if task.TotalBytes > 0 && bytesPerSecond > 0 {
			remaining := float64(task.TotalBytes - downloaded)
			task.ETASec = int(remaining / bytesPerSecond)
		}
	}
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
}
