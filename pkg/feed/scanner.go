package feed

import (
	"context"
	"sync"
	"time"

	"weibodl/pkg/config"
	"weibodl/pkg/logger"
	"weibodl/pkg/metrics"
)

// DefaultSelector matches the timestamp permalink of every feed item
const DefaultSelector = `.WB_from > a[node-type="feed_list_item_date"]`

// DefaultInterval is the pause between scan passes
const DefaultInterval = 5 * time.Second

// Activator handles an activated download control
type Activator interface {
	Activate(ctx context.Context, control *Control)
}

// Control is an injected download control bound to one post
type Control struct {
	Permalink string
	activator Activator
}

// NewControl binds a control for permalink to activator
func NewControl(permalink string, activator Activator) *Control {
	return &Control{Permalink: permalink, activator: activator}
}

// Activate forwards the activation to the bound handler
func (c *Control) Activate(ctx context.Context) {
	if c.activator != nil {
		c.activator.Activate(ctx, c)
	}
}

// Options configures a Scanner
type Options struct {
	Selector       string
	AttachPolicy   string
	ExcludedBadges []string
	Label          string
	Interval       time.Duration
}

// OptionsFromConfig maps the feed configuration section onto Options
func OptionsFromConfig(cfg config.FeedConfig) Options {
	return Options{
		Selector:       cfg.AnchorSelector,
		AttachPolicy:   cfg.AttachPolicy,
		ExcludedBadges: cfg.ExcludedBadges,
		Label:          cfg.ControlLabel,
		Interval:       cfg.ScanInterval,
	}
}

// Scanner finds posts on a feed page and attaches download controls
type Scanner struct {
	opts      Options
	attach    AttachPredicate
	activator Activator
	onControl func(*Control)
	metrics   *metrics.Collector
	logger    logger.Logger

	mu        sync.Mutex
	processed map[string]struct{}
}

// NewScanner creates a new scanner
func NewScanner(opts Options, activator Activator, m *metrics.Collector, log logger.Logger) *Scanner {
	if opts.Selector == "" {
		opts.Selector = DefaultSelector
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Label == "" {
		opts.Label = "下载"
	}
	if opts.AttachPolicy == "" {
		opts.AttachPolicy = config.AttachStrict
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Scanner{
		opts:      opts,
		attach:    NewAttachPredicate(opts.AttachPolicy, opts.ExcludedBadges),
		activator: activator,
		metrics:   m,
		logger:    log.WithField("component", "scanner"),
		processed: make(map[string]struct{}),
	}
}

// OnControl registers a callback invoked for every attached control
func (s *Scanner) OnControl(fn func(*Control)) {
	s.onControl = fn
}

// Processed returns the number of anchors examined so far
func (s *Scanner) Processed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processed)
}

// Scan makes one pass over page. Every candidate not seen before is marked
// in the same pass, and qualifying ones get a control. It returns the number
// of newly marked anchors.
func (s *Scanner) Scan(page Page) int {
	var controls []*Control
	marked := 0

	s.mu.Lock()
	for _, anchor := range page.Candidates(s.opts.Selector) {
		key := anchor.Key()
		if _, seen := s.processed[key]; seen {
			anchor.mark()
			continue
		}
		s.processed[key] = struct{}{}
		anchor.mark()
		marked++

		if !s.attach(anchor) {
			continue
		}
		if err := page.InsertControl(anchor, s.opts.Label); err != nil {
			s.logger.WithError(err).WarnWithFields("failed to insert control", map[string]interface{}{
				"permalink": anchor.Permalink(),
			})
			continue
		}
		controls = append(controls, NewControl(anchor.Permalink(), s.activator))
	}
	s.mu.Unlock()

	s.metrics.RecordScan(len(controls))
	if marked > 0 {
		s.logger.InfoWithFields("added buttons", map[string]interface{}{
			"count":    marked,
			"controls": len(controls),
		})
	}

	if s.onControl != nil {
		for _, c := range controls {
			s.onControl(c)
		}
	}
	return marked
}

// Run scans the page from source immediately and then at every interval
// until ctx is cancelled. A failed load is logged and the tick skipped.
func (s *Scanner) Run(ctx context.Context, source Source) error {
	logger.LogComponentStart("scanner", map[string]interface{}{
		"source":   source.Name(),
		"interval": s.opts.Interval,
		"policy":   s.opts.AttachPolicy,
	})

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		s.tick(ctx, source)

		select {
		case <-ctx.Done():
			logger.LogComponentStop("scanner", ctx.Err().Error())
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scanner) tick(ctx context.Context, source Source) {
	page, err := source.Load(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.WithError(err).WarnWithFields("failed to load page", map[string]interface{}{
				"source": source.Name(),
			})
		}
		return
	}
	s.Scan(page)
}
