package feed

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"weibodl/pkg/retry"
)

// Source loads a fresh copy of a feed page
type Source interface {
	Load(ctx context.Context) (Page, error)
	Name() string
}

// PageFetcher fetches a page body over HTTP
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// FileSource reads a saved feed page from disk
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return f.Path }

func (f FileSource) Load(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return NewDocument(bytes.NewReader(data))
}

// URLSource fetches the feed page from weibo.com. Timed out fetches are
// retried a few times with exponential backoff.
type URLSource struct {
	URL         string
	Fetcher     PageFetcher
	MaxAttempts int
	Backoff     retry.BackoffStrategy
}

func (u URLSource) Name() string { return u.URL }

func (u URLSource) Load(ctx context.Context) (Page, error) {
	attempts := u.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := u.Backoff
	if backoff == nil {
		backoff = retry.DefaultExponentialBackoff()
	}

	body, err := retry.DoWithResult(func() ([]byte, error) {
		return u.Fetcher.FetchPage(ctx, u.URL)
	}, &retry.Config{
		MaxAttempts: attempts,
		Backoff:     backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
	})
	if err != nil {
		return nil, err
	}
	return NewDocument(bytes.NewReader(body))
}
