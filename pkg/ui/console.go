package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"weibodl/pkg/trigger"
)

// ConsoleDashboard prints one line per event
type ConsoleDashboard struct {
	mu        sync.Mutex
	out       io.Writer
	startTime time.Time
	controls  int
	files     int
	failed    int
	bytes     int64
}

// NewConsoleDashboard creates a dashboard writing to out
func NewConsoleDashboard(out io.Writer) *ConsoleDashboard {
	return &ConsoleDashboard{out: out, startTime: time.Now()}
}

func (c *ConsoleDashboard) ControlAttached(permalink string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controls++
	fmt.Fprintf(c.out, "%s %s\n", Magenta("+"), permalink)
}

func (c *ConsoleDashboard) ActivationStarted(permalink string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", Cyan("→"), permalink)
}

func (c *ConsoleDashboard) ActivationFinished(permalink string, outcome *trigger.Outcome, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		fmt.Fprintf(c.out, "%s %s • %v\n", Red("✗"), permalink, err)
		return
	}

	c.files += outcome.Succeeded()
	c.failed += outcome.Failed()
	c.bytes += OutcomeBytes(outcome)

	line := fmt.Sprintf("%s %s • %d files • %s",
		Green("✓"),
		outcome.PostID,
		outcome.Succeeded(),
		FormatBytes(OutcomeBytes(outcome)),
	)
	if outcome.Failed() > 0 {
		line += " • " + Red(fmt.Sprintf("%d failed", outcome.Failed()))
	}
	fmt.Fprintln(c.out, line)
}

func (c *ConsoleDashboard) LogInfo(format string, args ...interface{}) {
	c.log(Cyan("•"), format, args...)
}

func (c *ConsoleDashboard) LogWarning(format string, args ...interface{}) {
	c.log(Yellow("⚠"), format, args...)
}

func (c *ConsoleDashboard) LogError(format string, args ...interface{}) {
	c.log(Red("✗"), format, args...)
}

func (c *ConsoleDashboard) log(prefix, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// IsPaused is always false; the console has no pause control
func (c *ConsoleDashboard) IsPaused() bool {
	return false
}

// Complete prints the session totals
func (c *ConsoleDashboard) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\n%s %d controls attached, %d files downloaded\n",
		Green("✓"), c.controls, c.files)
	fmt.Fprintf(c.out, "  %s %s in %s\n",
		Dim("•"), FormatBytes(c.bytes), FormatDuration(time.Since(c.startTime)))
	if c.failed > 0 {
		fmt.Fprintf(c.out, "  %s %d downloads failed\n", Dim("•"), c.failed)
	}
}

// PrintOutcome prints the summary of a single activation
func PrintOutcome(out io.Writer, outcome *trigger.Outcome) {
	if len(outcome.Results) == 0 {
		fmt.Fprintf(out, "%s no media in post %s\n", Yellow("⚠"), outcome.PostID)
		return
	}

	for _, r := range outcome.Results {
		if r.Success() {
			fmt.Fprintf(out, "%s %s • %s\n", Green("✓"), r.Task.Filename, FormatBytes(r.Size))
			continue
		}
		fmt.Fprintf(out, "%s %s • %v (%d attempts)\n", Red("✗"), r.Task.Filename, r.Err, r.Attempts)
	}

	fmt.Fprintf(out, "\n%s Downloaded %d of %d files from %s (activation %s)\n",
		Green("✓"),
		outcome.Succeeded(),
		len(outcome.Results),
		outcome.PostID,
		outcome.ActivationID,
	)
}

// OutcomeBytes sums the sizes of the stored files
func OutcomeBytes(outcome *trigger.Outcome) int64 {
	var total int64
	for _, r := range outcome.Results {
		if r.Success() {
			total += r.Size
		}
	}
	return total
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
