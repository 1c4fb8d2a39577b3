package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ytget/video-thumb/internal/model"
	"github.com/ytget/video-thumb/internal/platform"
)

// Download constants
const (
	DefaultProgressInterval = 100 * time.Millisecond
	DefaultUserAgent        = "video-thumb/1.0"
	PartSuffix              = ".part"
	TaskIDPrefix            = "download-"
	FilePermissions         = 0644
)

// Service handles download operations
type Service struct {
	tasks            map[string]*model.DownloadTask
	tasksMutex       sync.RWMutex
	downloadDir      string
	client           *http.Client
	userAgent        string
	progressInterval time.Duration
	log              logrus.FieldLogger
	onUpdate         func(*model.DownloadTask) // callback for progress reporting
}

// NewService creates a new download service
func NewService(downloadDir string, log logrus.FieldLogger) *Service {
	return &Service{
		tasks:            make(map[string]*model.DownloadTask),
		downloadDir:      downloadDir,
		client:           http.DefaultClient,
		userAgent:        DefaultUserAgent,
		progressInterval: DefaultProgressInterval,
		log:              log,
	}
}

// SetUpdateCallback sets the callback function for task updates.
// The callback receives a snapshot, never the live task.
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.onUpdate = callback
}

// SetDownloadDirectory sets the download directory
func (s *Service) SetDownloadDirectory(dir string) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.downloadDir = dir
}

// SetHTTPClient replaces the client used for requests
func (s *Service) SetHTTPClient(client *http.Client) {
	if client == nil {
		client = http.DefaultClient
	}
	s.client = client
}

// SetUserAgent sets the User-Agent header sent with requests
func (s *Service) SetUserAgent(userAgent string) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	s.userAgent = userAgent
}

// GetTask returns a copy of the task with the given ID
func (s *Service) GetTask(id string) (*model.DownloadTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[id]
	if !exists {
		return nil, false
	}
	snapshot := *task
	return &snapshot, true
}

// GetAllTasks returns copies of all tasks ordered by start time
func (s *Service) GetAllTasks() []*model.DownloadTask {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()

	tasks := make([]*model.DownloadTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		snapshot := *task
		tasks = append(tasks, &snapshot)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].StartedAt.Before(tasks[j].StartedAt)
	})
	return tasks
}

// Download fetches url into the download directory and blocks until the
// transfer finishes. The returned task is non-nil whenever the URL was valid.
func (s *Service) Download(ctx context.Context, url string) (*model.DownloadTask, error) {
	fileName, err := FileNameFromURL(url)
	if err != nil {
		return nil, err
	}

	s.tasksMutex.Lock()
	dir := s.downloadDir
	task := &model.DownloadTask{
		ID:         generateTaskID(),
		URL:        strings.TrimSpace(url),
		FileName:   fileName,
		OutputPath: filepath.Join(dir, fileName),
		Status:     model.TaskStatusPending,
		TotalBytes: -1,
		ETASec:     -1,
		StartedAt:  time.Now(),
	}
	s.tasks[task.ID] = task
	s.tasksMutex.Unlock()

	log := s.log.WithFields(logrus.Fields{"task": task.ID, "url": task.URL})

	exists, err := platform.FileExists(task.OutputPath)
	if err != nil {
		return task, s.setTaskError(task, fmt.Errorf("failed to check %s: %w", task.OutputPath, err))
	}
	if exists {
		s.markReused(task)
		log.WithField("path", task.OutputPath).Info("file already exists, using downloaded version")
		return task, nil
	}

	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return task, s.setTaskError(task, fmt.Errorf("failed to ensure download directory: %w", err))
	}

	s.setStatus(task, model.TaskStatusStarting)
	log.Debug("starting request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return task, s.setTaskError(task, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return task, s.finishWithError(ctx, task, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return task, s.setTaskError(task, &StatusError{Code: resp.StatusCode, URL: task.URL})
	}

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusDownloading
	task.TotalBytes = resp.ContentLength
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	written, err := s.writeBody(task, resp.Body)
	if err != nil {
		return task, s.finishWithError(ctx, task, err)
	}

	now := time.Now()
	s.updateTaskProgress(task, written, now)

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusCompleted
	task.TotalBytes = written
	task.Progress = 1.0
	task.Percent = 100
	task.ETASec = 0
	task.FinishedAt = now
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	log.WithFields(logrus.Fields{"path": task.OutputPath, "bytes": written}).Debug("download finished")
	return task, nil
}

// writeBody streams body into a ".part" file and renames it into place.
// The partial file is removed on any failure.
func (s *Service) writeBody(task *model.DownloadTask, body io.Reader) (int64, error) {
	partPath := task.OutputPath + PartSuffix
	file, err := os.OpenFile(partPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FilePermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	pw := &progressWriter{service: s, task: task, lastNotify: time.Now()}
	written, copyErr := io.Copy(file, io.TeeReader(body, pw))
	closeErr := file.Close()

	if copyErr == nil && task.TotalBytes > 0 && written != task.TotalBytes {
		copyErr = fmt.Errorf("incomplete body: got %d of %d bytes", written, task.TotalBytes)
	}
	if copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("failed to close file: %w", closeErr)
	}
	if copyErr == nil {
		if err := os.Rename(partPath, task.OutputPath); err != nil {
			copyErr = fmt.Errorf("failed to move file into place: %w", err)
		}
	}

	if copyErr != nil {
		if err := platform.RemoveIfExists(partPath); err != nil {
			s.log.WithError(err).WithField("path", partPath).Warn("failed to remove partial file")
		}
		return written, copyErr
	}
	return written, nil
}

// markReused finishes a task for a file that is already on disk
func (s *Service) markReused(task *model.DownloadTask) {
	var size int64 = -1
	if info, err := os.Stat(task.OutputPath); err == nil {
		size = info.Size()
	}

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusSkipped
	task.Reused = true
	task.DownloadedBytes = size
	task.TotalBytes = size
	task.Progress = 1.0
	task.Percent = 100
	task.ETASec = 0
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
}

// finishWithError marks the task stopped when ctx was cancelled, failed otherwise
func (s *Service) finishWithError(ctx context.Context, task *model.DownloadTask, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.tasksMutex.Lock()
		task.Status = model.TaskStatusStopped
		task.LastError = ctxErr.Error()
		task.FinishedAt = time.Now()
		s.tasksMutex.Unlock()
		s.notifyUpdate(task)
		return fmt.Errorf("download stopped: %w", ctxErr)
	}
	return s.setTaskError(task, err)
}

// setTaskError sets an error state for a task and returns err
func (s *Service) setTaskError(task *model.DownloadTask, err error) error {
	s.tasksMutex.Lock()
	task.Status = model.TaskStatusError
	task.LastError = err.Error()
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
	return err
}

func (s *Service) setStatus(task *model.DownloadTask, status model.TaskStatus) {
	s.tasksMutex.Lock()
	task.Status = status
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
}

// notifyUpdate calls the update callback with a copy of the task
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	if s.onUpdate == nil {
		return
	}
	s.tasksMutex.RLock()
	snapshot := *task
	s.tasksMutex.RUnlock()
	s.onUpdate(&snapshot)
}

// IsStatusError reports whether err carries an HTTP status and returns it
func IsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}

// generateTaskID generates a unique task ID using UUID v7 for time ordering
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
