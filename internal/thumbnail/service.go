package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ytget/video-thumb/internal/model"
	"github.com/ytget/video-thumb/internal/platform"
)

// FFmpeg constants for frame extraction
const (
	FFmpegCommand   = "ffmpeg"
	FFprobeCommand  = "ffprobe"
	ThumbnailFilter = "thumbnail"
	FrameCount      = 1

	DefaultOutputPath = "thumbnail.jpg"
	TaskIDPrefix      = "thumbnail-"

	// Number of trailing ffmpeg output lines kept in error messages
	outputTailLines = 5
)

var (
	// ErrInvalidPath is returned for an empty input path
	ErrInvalidPath = errors.New("supplied path must be a non-empty string")

	// ErrFFmpegNotFound is returned when the ffmpeg binary cannot be located
	ErrFFmpegNotFound = errors.New("ffmpeg executable not found")
)

// Service handles thumbnail extraction
type Service struct {
	tasks      map[string]*model.ThumbnailTask
	tasksMutex sync.RWMutex
	ffmpegPath string
	outputPath string
	width      int
	timeout    time.Duration
	inspect    Inspector
	log        logrus.FieldLogger
	onUpdate   func(*model.ThumbnailTask)
}

// NewService creates a new thumbnail service writing to outputPath
func NewService(outputPath string, log logrus.FieldLogger) *Service {
	if outputPath == "" {
		outputPath = DefaultOutputPath
	}
	return &Service{
		tasks:      make(map[string]*model.ThumbnailTask),
		ffmpegPath: FFmpegCommand,
		outputPath: outputPath,
		inspect:    defaultInspector(),
		log:        log,
	}
}

// defaultInspector returns ffprobe through ffmpeg-go, or nil when ffprobe is absent
func defaultInspector() Inspector {
	if _, err := exec.LookPath(FFprobeCommand); err != nil {
		return nil
	}
	return ffprobe
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.ThumbnailTask)) {
	s.onUpdate = callback
}

// SetFFmpegPath sets the ffmpeg binary (name looked up in PATH, or a path)
func (s *Service) SetFFmpegPath(path string) {
	if path == "" {
		path = FFmpegCommand
	}
	s.ffmpegPath = path
}

// SetOutputPath sets where the thumbnail is written
func (s *Service) SetOutputPath(path string) {
	if path == "" {
		path = DefaultOutputPath
	}
	s.outputPath = path
}

// SetWidth scales the thumbnail to width pixels, keeping aspect; 0 keeps the native size
func (s *Service) SetWidth(width int) {
	if width < 0 {
		width = 0
	}
	s.width = width
}

// SetTimeout bounds the ffmpeg run; 0 means no limit
func (s *Service) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

// SetInspector replaces the video inspector; nil disables inspection
func (s *Service) SetInspector(inspect Inspector) {
	s.inspect = inspect
}

// GetTask returns a copy of the thumbnail task with the given ID
func (s *Service) GetTask(taskID string) (*model.ThumbnailTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[taskID]
	if !exists {
		return nil, false
	}
	snapshot := *task
	return &snapshot, true
}

// Extract pulls one frame from inputPath and writes it to the output path.
// It blocks until ffmpeg exits.
func (s *Service) Extract(ctx context.Context, inputPath string) (*model.ThumbnailTask, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, ErrInvalidPath
	}

	ok, err := platform.FileExists(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check input file: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("input file does not exist: %s", inputPath)
	}

	task := &model.ThumbnailTask{
		ID:         generateTaskID(),
		InputPath:  inputPath,
		OutputPath: s.outputPath,
		Status:     model.TaskStatusPending,
		StartedAt:  time.Now(),
	}
	s.tasksMutex.Lock()
	s.tasks[task.ID] = task
	s.tasksMutex.Unlock()

	log := s.log.WithFields(logrus.Fields{"task": task.ID, "path": inputPath})

	ffmpegBin, err := exec.LookPath(s.ffmpegPath)
	if err != nil {
		return task, s.setTaskError(task, fmt.Errorf("%w: %s", ErrFFmpegNotFound, s.ffmpegPath))
	}

	s.setStatus(task, model.TaskStatusStarting)

	if s.inspect != nil {
		if info, err := s.inspectVideo(ctx, inputPath); err != nil {
			log.WithError(err).Warn("failed to inspect video")
		} else {
			s.tasksMutex.Lock()
			task.Video = info
			s.tasksMutex.Unlock()
			log.WithField("video", info.String()).Debug("inspected video")
		}
	}

	// ffmpeg asks before overwriting, so clear the old thumbnail first
	if err := platform.RemoveIfExists(task.OutputPath); err != nil {
		return task, s.setTaskError(task, fmt.Errorf("failed to remove old thumbnail: %w", err))
	}
	if dir := filepath.Dir(task.OutputPath); dir != "." {
		if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
			return task, s.setTaskError(task, fmt.Errorf("failed to ensure thumbnail directory: %w", err))
		}
	}

	s.setStatus(task, model.TaskStatusProcessing)

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := s.BuildFFmpegArgs(task.InputPath, task.OutputPath)
	log.WithField("args", strings.Join(args, " ")).Debug("running ffmpeg")

	cmd := exec.CommandContext(runCtx, ffmpegBin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if rmErr := platform.RemoveIfExists(task.OutputPath); rmErr != nil {
			log.WithError(rmErr).WithField("output", task.OutputPath).Warn("failed to remove partial thumbnail")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return task, s.setTaskStopped(task, ctxErr)
		}
		if runCtx.Err() == context.DeadlineExceeded {
			return task, s.setTaskError(task, fmt.Errorf("ffmpeg timed out after %s", s.timeout))
		}
		return task, s.setTaskError(task, fmt.Errorf("ffmpeg failed: %w: %s", err, outputTail(out)))
	}

	width, height, err := s.finishImage(task.OutputPath)
	if err != nil {
		return task, s.setTaskError(task, err)
	}

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusCompleted
	task.Width = width
	task.Height = height
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	log.WithFields(logrus.Fields{"output": task.OutputPath, "width": width, "height": height}).Debug("thumbnail written")
	return task, nil
}

// BuildFFmpegArgs builds the ffmpeg command arguments
func (s *Service) BuildFFmpegArgs(inputPath, outputPath string) []string {
	return ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"vf":       ThumbnailFilter,
			"frames:v": FrameCount,
		}).
		OverWriteOutput().
		GetArgs()
}

// inspectVideo describes the video stream of path, bounded by the timeout
func (s *Service) inspectVideo(ctx context.Context, path string) (*model.VideoInfo, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	out, err := s.inspect(ctx, path)
	if err != nil {
		return nil, err
	}
	return parseMetadata(out)
}

// finishImage decodes the written thumbnail to make sure ffmpeg produced an
// image, scales it when a width is configured, and returns its size.
func (s *Service) finishImage(path string) (int, int, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("ffmpeg did not produce a readable thumbnail: %w", err)
	}

	bounds := img.Bounds()
	if s.width > 0 && bounds.Dx() != s.width {
		resized := imaging.Resize(img, s.width, 0, imaging.Lanczos)
		if err := imaging.Save(resized, path); err != nil {
			return 0, 0, fmt.Errorf("failed to save resized thumbnail: %w", err)
		}
		bounds = resized.Bounds()
	}
	return bounds.Dx(), bounds.Dy(), nil
}

func (s *Service) setStatus(task *model.ThumbnailTask, status model.TaskStatus) {
	s.tasksMutex.Lock()
	task.Status = status
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
}

// setTaskError sets an error state for a task and returns err
func (s *Service) setTaskError(task *model.ThumbnailTask, err error) error {
	s.tasksMutex.Lock()
	task.Status = model.TaskStatusError
	task.LastError = err.Error()
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
	return err
}

func (s *Service) setTaskStopped(task *model.ThumbnailTask, err error) error {
	s.tasksMutex.Lock()
	task.Status = model.TaskStatusStopped
	task.LastError = err.Error()
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
	return fmt.Errorf("thumbnail extraction stopped: %w", err)
}

// notifyUpdate calls the update callback with a copy of the task
func (s *Service) notifyUpdate(task *model.ThumbnailTask) {
	if s.onUpdate == nil {
		return
	}
	s.tasksMutex.RLock()
	snapshot := *task
	s.tasksMutex.RUnlock()
	s.onUpdate(&snapshot)
}

// outputTail returns the last few non-empty lines of ffmpeg output
func outputTail(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > outputTailLines {
		lines = lines[len(lines)-outputTailLines:]
	}
	tail := strings.TrimSpace(strings.Join(lines, "\n"))
	if tail == "" {
		return "no output"
	}
	return tail
}

// generateTaskID generates a unique task ID using UUID v7 for time ordering
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
