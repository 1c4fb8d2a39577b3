package thumbnail

import (
	"context"

	"github.com/ytget/video-thumb/internal/model"
)

// Extractor defines the interface for the thumbnail service.
type Extractor interface {
	SetUpdateCallback(func(*model.ThumbnailTask))
	Extract(ctx context.Context, inputPath string) (*model.ThumbnailTask, error)
	GetTask(taskID string) (*model.ThumbnailTask, bool)
}

// Inspector returns ffprobe's JSON description of a media file
type Inspector func(ctx context.Context, path string) (string, error)
