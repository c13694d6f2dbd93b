package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"weibodl/internal/downloader"
	"weibodl/pkg/trigger"
)

type recordingSender struct {
	titles []string
	err    error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func TestNotifierForwardsToSender(t *testing.T) {
	sender := &recordingSender{err: errors.New("no display")}
	var out bytes.Buffer
	n := NewNotifierWithSender(sender, &out)

	n.SendSuccess("Download complete", "Nabc123: 3 files saved")
	n.SendError("Download failed", "Nabc123: timeout")

	assert.Equal(t, []string{"Download complete", "Download failed"}, sender.titles)
	assert.Contains(t, out.String(), "Nabc123: 3 files saved")
	assert.Contains(t, out.String(), "Nabc123: timeout")
}

func TestNotifierWithoutSender(t *testing.T) {
	n := NewNotifierWithSender(nil, nil)
	assert.NotPanics(t, func() { n.SendNotification("title", "message") })
}

func sampleOutcome() *trigger.Outcome {
	return &trigger.Outcome{
		ActivationID: "act-1",
		PostID:       "Nabc123",
		Results: []downloader.Result{
			{Task: downloader.Task{Filename: "240305102030.jpg"}, Attempts: 1, Size: 2048},
			{Task: downloader.Task{Filename: "240305102031.mp4"}, Attempts: 1, Err: errors.New("forbidden")},
		},
	}
}

func TestPrintOutcome(t *testing.T) {
	var out bytes.Buffer
	PrintOutcome(&out, sampleOutcome())

	assert.Contains(t, out.String(), "240305102030.jpg")
	assert.Contains(t, out.String(), "forbidden")
	assert.Contains(t, out.String(), "Downloaded 1 of 2 files from Nabc123")
}

func TestPrintOutcomeWithoutMedia(t *testing.T) {
	var out bytes.Buffer
	PrintOutcome(&out, &trigger.Outcome{PostID: "Nabc123"})
	assert.Contains(t, out.String(), "no media in post Nabc123")
}

func TestConsoleDashboard(t *testing.T) {
	var out bytes.Buffer
	d := NewConsoleDashboard(&out)

	d.ControlAttached("https://weibo.com/1/Nabc123")
	d.ActivationStarted("https://weibo.com/1/Nabc123")
	d.ActivationFinished("https://weibo.com/1/Nabc123", sampleOutcome(), nil)
	d.ActivationFinished("/u/profile", nil, errors.New("no post id"))
	d.Complete()

	require.False(t, d.IsPaused())
	assert.Equal(t, 1, d.files)
	assert.Equal(t, 1, d.failed)
	assert.Equal(t, int64(2048), d.bytes)
	assert.Contains(t, out.String(), "no post id")
	assert.Contains(t, out.String(), "1 controls attached, 1 files downloaded")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBytes(tt.bytes))
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h30m", FormatDuration(90*time.Minute))
}
