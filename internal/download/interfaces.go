package download

import (
	"context"
	"net/http"

	"github.com/ytget/video-thumb/internal/model"
)

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(*model.DownloadTask))
	Download(ctx context.Context, url string) (*model.DownloadTask, error)
	GetTask(id string) (*model.DownloadTask, bool)
	GetAllTasks() []*model.DownloadTask

	// SetDownloadDirectory sets the directory files are saved to
	SetDownloadDirectory(dir string)

	// SetHTTPClient replaces the client used for requests
	SetHTTPClient(client *http.Client)
}
