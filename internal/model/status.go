package model

// TaskStatus represents the status of a download or thumbnail task
type TaskStatus string

const (
	// TaskStatusPending means the task is created but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusStarting means the task is in the process of starting
	TaskStatusStarting TaskStatus = "Starting"

	// TaskStatusDownloading means the download is in progress
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusProcessing means ffmpeg is extracting the thumbnail
	TaskStatusProcessing TaskStatus = "Processing"

	// TaskStatusStopped means the task was cancelled
	TaskStatusStopped TaskStatus = "Stopped"

	// TaskStatusCompleted means the task finished successfully
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusSkipped means the work was already done (file present on disk)
	TaskStatusSkipped TaskStatus = "Skipped"

	// TaskStatusError means the task failed with an error
	TaskStatusError TaskStatus = "Error"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsFinished returns true if the task is in a finished state (completed, skipped, stopped, or error)
func (ts TaskStatus) IsFinished() bool {
	switch ts {
	case TaskStatusCompleted, TaskStatusSkipped, TaskStatusStopped, TaskStatusError:
		return true
	}
	return false
}

// IsSuccess returns true if the task produced a usable result
func (ts TaskStatus) IsSuccess() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusSkipped
}
