package trigger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"weibodl/internal/downloader"
	errs "weibodl/pkg/errors"
	"weibodl/pkg/feed"
	"weibodl/pkg/logger"
	"weibodl/pkg/metadata"
	"weibodl/pkg/metrics"
	"weibodl/pkg/naming"
	"weibodl/pkg/ratelimit"
	"weibodl/pkg/resolver"
	"weibodl/pkg/weibo"
)

// ErrInFlight is returned when the post already has a running activation
var ErrInFlight = errors.New("activation already in flight")

// Activation outcomes used as metric labels
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusEmpty     = "empty"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Options selects optional steps of an activation
type Options struct {
	SaveMetadata     bool
	SkipImages       bool
	SkipVideos       bool
	NotifyOnComplete bool
	NotifyOnError    bool
}

// Deps are the collaborators of a Handler. Limiter, Sidecar, Notifier and
// Metrics are optional.
type Deps struct {
	Fetcher    Fetcher
	Resolver   *resolver.Resolver
	Namer      *naming.Generator
	Downloader Downloader
	Limiter    ratelimit.Limiter
	Sidecar    metadata.FileWriter
	Notifier   Notifier
	Metrics    *metrics.Collector
	Logger     logger.Logger
}

// Plan is a resolved and named asset set ready for download
type Plan struct {
	Post   *weibo.PostMetadata
	Assets []resolver.Asset
	Tasks  []downloader.Task
}

// Outcome summarises one activation
type Outcome struct {
	ActivationID string
	PostID       string
	Assets       []resolver.Asset
	Results      []downloader.Result
}

// Failed returns the number of abandoned downloads
func (o *Outcome) Failed() int {
	n := 0
	for _, r := range o.Results {
		if !r.Success() {
			n++
		}
	}
	return n
}

// Succeeded returns the number of stored downloads
func (o *Outcome) Succeeded() int {
	return len(o.Results) - o.Failed()
}

// Handler turns an activated control into downloads
type Handler struct {
	deps      Deps
	opts      Options
	logger    logger.Logger
	onOutcome func(*feed.Control, *Outcome, error)

	wg       sync.WaitGroup
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewHandler creates a new trigger handler
func NewHandler(deps Deps, opts Options) *Handler {
	if deps.Resolver == nil {
		deps.Resolver = resolver.New(deps.Logger)
	}
	if deps.Namer == nil {
		deps.Namer = naming.NewGenerator(nil)
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.Unlimited{}
	}
	log := deps.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	return &Handler{
		deps:     deps,
		opts:     opts,
		logger:   log.WithField("component", "trigger"),
		inFlight: make(map[string]struct{}),
	}
}

// OnOutcome registers a callback receiving the result of every activation
// started through Activate
func (h *Handler) OnOutcome(fn func(*feed.Control, *Outcome, error)) {
	h.onOutcome = fn
}

// Activate handles control in the background and returns immediately
func (h *Handler) Activate(ctx context.Context, control *feed.Control) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		outcome, err := h.HandlePermalink(ctx, control.Permalink)
		if h.onOutcome != nil {
			h.onOutcome(control, outcome, err)
		}
	}()
}

// Wait blocks until every background activation has finished
func (h *Handler) Wait() {
	h.wg.Wait()
}

// HandlePermalink extracts the post id from href and handles the post
func (h *Handler) HandlePermalink(ctx context.Context, href string) (*Outcome, error) {
	postID, err := weibo.ParsePermalink(href)
	if err != nil {
		h.logger.WithError(err).WarnWithFields("cannot activate control", map[string]interface{}{
			"permalink": href,
		})
		h.deps.Metrics.RecordActivation(StatusFailed)
		return nil, err
	}
	return h.HandlePost(ctx, postID)
}

// HandlePost fetches, resolves, names and downloads every asset of a post.
// All filenames are assigned before the first download starts.
func (h *Handler) HandlePost(ctx context.Context, postID string) (*Outcome, error) {
	outcome := &Outcome{
		ActivationID: uuid.NewString(),
		PostID:       postID,
	}
	log := h.logger.WithFields(map[string]interface{}{
		"activation_id": outcome.ActivationID,
		"post_id":       postID,
	})

	if !h.acquire(postID) {
		log.Warn("activation already in flight, skipping")
		h.deps.Metrics.RecordActivation(StatusSkipped)
		return nil, ErrInFlight
	}
	defer h.release(postID)

	h.deps.Metrics.ActivationStarted()
	status := StatusFailed
	defer func() { h.deps.Metrics.ActivationFinished(status) }()

	log.Debug("activation started")

	plan, err := h.plan(ctx, postID, log)
	if err != nil {
		logger.LogActivation(log, outcome.ActivationID, postID, 0, 0, err)
		h.notifyError(postID, err)
		return nil, err
	}
	outcome.Assets = plan.Assets

	if len(plan.Tasks) == 0 {
		status = StatusEmpty
		logger.LogActivation(log, outcome.ActivationID, postID, 0, 0, nil)
		return outcome, nil
	}

	if h.opts.SaveMetadata && h.deps.Sidecar != nil {
		h.writeSidecar(plan, log)
	}

	outcome.Results = h.deps.Downloader.DownloadAll(ctx, plan.Tasks)

	status = StatusCompleted
	if outcome.Failed() > 0 {
		status = StatusPartial
	}
	logger.LogActivation(log, outcome.ActivationID, postID, len(outcome.Results), outcome.Failed(), nil)
	h.notifyDone(outcome)

	return outcome, nil
}

// Plan fetches and resolves a post and names its assets without
// downloading anything
func (h *Handler) Plan(ctx context.Context, postID string) (*Plan, error) {
	return h.plan(ctx, postID, h.logger.WithField("post_id", postID))
}

func (h *Handler) plan(ctx context.Context, postID string, log logger.Logger) (*Plan, error) {
	if err := h.deps.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	post, err := h.deps.Fetcher.FetchStatus(ctx, postID)
	if err != nil {
		h.deps.Metrics.RecordFetchError(string(errs.TypeOf(err)))
		return nil, err
	}

	var assets []resolver.Asset
	for _, a := range h.deps.Resolver.Resolve(post) {
		if a.Kind.IsVideo() && h.opts.SkipVideos {
			continue
		}
		if !a.Kind.IsVideo() && h.opts.SkipImages {
			continue
		}
		assets = append(assets, a)
	}

	tasks := make([]downloader.Task, 0, len(assets))
	for _, a := range assets {
		name, err := h.deps.Namer.Generate(post, a.Index, a.Ext)
		if err != nil {
			return nil, fmt.Errorf("name asset %d: %w", a.Index, err)
		}
		tasks = append(tasks, downloader.Task{
			URL:      a.URL,
			Filename: name,
			Kind:     a.Kind,
			Index:    a.Index,
		})
		h.deps.Metrics.RecordAsset(a.Branch, string(a.Kind))
	}

	log.DebugWithFields("post resolved", map[string]interface{}{
		"assets": len(assets),
	})
	return &Plan{Post: post, Assets: assets, Tasks: tasks}, nil
}

func (h *Handler) writeSidecar(plan *Plan, log logger.Logger) {
	name, err := h.deps.Namer.Generate(plan.Post, 0, "json")
	if err != nil {
		log.WithError(err).Warn("failed to name metadata file")
		return
	}

	records := make([]metadata.AssetRecord, len(plan.Tasks))
	for i, t := range plan.Tasks {
		records[i] = metadata.AssetRecord{
			Index:    t.Index,
			Kind:     string(t.Kind),
			URL:      t.URL,
			Filename: t.Filename,
		}
	}

	if err := metadata.Write(h.deps.Sidecar, name, metadata.FromPost(plan.Post, records)); err != nil {
		log.WithError(err).Warn("failed to save metadata")
	}
}

func (h *Handler) notifyDone(o *Outcome) {
	if h.deps.Notifier == nil {
		return
	}
	if o.Failed() > 0 {
		if h.opts.NotifyOnError {
			h.deps.Notifier.SendError("Download incomplete",
				fmt.Sprintf("%s: %d of %d files failed", o.PostID, o.Failed(), len(o.Results)))
		}
		return
	}
	if h.opts.NotifyOnComplete {
		h.deps.Notifier.SendSuccess("Download complete",
			fmt.Sprintf("%s: %d files saved", o.PostID, o.Succeeded()))
	}
}

func (h *Handler) notifyError(postID string, err error) {
	if h.deps.Notifier != nil && h.opts.NotifyOnError {
		h.deps.Notifier.SendError("Download failed", fmt.Sprintf("%s: %v", postID, err))
	}
}

func (h *Handler) acquire(postID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inFlight[postID]; busy {
		return false
	}
	h.inFlight[postID] = struct{}{}
	return true
}

func (h *Handler) release(postID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inFlight, postID)
}
