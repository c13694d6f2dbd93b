package downloader

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	errs "weibodl/pkg/errors"
	"weibodl/pkg/logger"
	"weibodl/pkg/metrics"
	"weibodl/pkg/resolver"
	"weibodl/pkg/retry"
)

// Saver performs a single attempt at persisting a remote file
type Saver interface {
	Save(ctx context.Context, url, filename string, headers map[string]string) (int64, error)
}

// Task is one asset download with its final filename
type Task struct {
	URL      string
	Filename string
	Headers  map[string]string
	Kind     resolver.Kind
	Index    int
}

// Result is the terminal outcome of a Task
type Result struct {
	Task     Task
	Attempts int
	Size     int64
	Duration time.Duration
	Err      error
}

// Success reports whether the asset was stored
func (r Result) Success() bool {
	return r.Err == nil
}

// Options configures an Orchestrator
type Options struct {
	// Concurrency bounds parallel downloads per DownloadAll call (0 means unbounded)
	Concurrency int
	// MaxAttempts bounds timed out attempts per task (0 means unlimited)
	MaxAttempts int
	// RetryDelay is the pause before re-issuing a timed out attempt
	RetryDelay time.Duration
	// Headers are sent with every request; task headers take precedence
	Headers map[string]string
}

// Orchestrator runs downloads concurrently and retries timeouts
type Orchestrator struct {
	saver   Saver
	opts    Options
	metrics *metrics.Collector
	logger  logger.Logger
}

// NewOrchestrator creates a new download orchestrator
func NewOrchestrator(saver Saver, opts Options, m *metrics.Collector, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Orchestrator{
		saver:   saver,
		opts:    opts,
		metrics: m,
		logger:  log.WithField("component", "downloader"),
	}
}

// Download persists a single task. A timed out attempt is re-issued with the
// identical request; any other failure ends the task after that attempt.
func (o *Orchestrator) Download(ctx context.Context, task Task) Result {
	start := time.Now()
	result := Result{Task: task}
	headers := o.headersFor(task)
	log := o.logger.WithFields(map[string]interface{}{
		"filename": task.Filename,
		"kind":     string(task.Kind),
	})

	err := retry.Do(func() error {
		result.Attempts++
		o.metrics.RecordAttempt(string(task.Kind))

		size, err := o.saver.Save(ctx, task.URL, task.Filename, headers)
		if err != nil {
			return err
		}
		result.Size = size
		return nil
	}, &retry.Config{
		MaxAttempts: o.opts.MaxAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: o.opts.RetryDelay},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      log,
	})

	result.Err = err
	result.Duration = time.Since(start)

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, retry.ErrMaxAttempts):
		status = "exhausted"
	default:
		status = string(errs.TypeOf(err))
	}
	o.metrics.RecordDownload(string(task.Kind), status, result.Duration)
	logger.LogDownload(log, task.Filename, task.URL, result.Attempts, err)

	return result
}

// DownloadAll issues every task concurrently and waits for all of them.
// Results are returned in task order; one task's failure never affects
// another.
func (o *Orchestrator) DownloadAll(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))

	var g errgroup.Group
	if o.opts.Concurrency > 0 {
		g.SetLimit(o.opts.Concurrency)
	}

	for i := range tasks {
		i := i
		g.Go(func() error {
			results[i] = o.Download(ctx, tasks[i])
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) headersFor(task Task) map[string]string {
	headers := make(map[string]string, len(o.opts.Headers)+len(task.Headers))
	for k, v := range o.opts.Headers {
		headers[k] = v
	}
	for k, v := range task.Headers {
		headers[k] = v
	}
	return headers
}
