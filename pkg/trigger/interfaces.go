package trigger

import (
	"context"

	"weibodl/internal/downloader"
	"weibodl/pkg/weibo"
)

// Fetcher retrieves post metadata
type Fetcher interface {
	FetchStatus(ctx context.Context, postID string) (*weibo.PostMetadata, error)
}

// Downloader persists a batch of tasks
type Downloader interface {
	DownloadAll(ctx context.Context, tasks []downloader.Task) []downloader.Result
}

// Notifier reports finished activations to the user
type Notifier interface {
	SendSuccess(title, message string)
	SendError(title, message string)
}
