package trigger

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"weibodl/internal/downloader"
	errs "weibodl/pkg/errors"
	"weibodl/pkg/feed"
	"weibodl/pkg/logger"
	"weibodl/pkg/naming"
	"weibodl/pkg/resolver"
	"weibodl/pkg/weibo"
)

const livePost = `{
	"mblogid": "Nabc123",
	"created_at": "Tue Mar 05 10:20:30 +0800 2024",
	"text_raw": "spring",
	"pic_infos": {
		"p1": {"largest": {"url": "https://wx1.sinaimg.cn/large/p1.jpg"}, "video": "https://video.weibo.com/p1.mov"},
		"p2": {"largest": {"url": "https://wx1.sinaimg.cn/large/p2.jpg"}}
	}
}`

type fakeFetcher struct {
	mu    sync.Mutex
	body  string
	err   error
	calls []string
	block chan struct{}
}

func (f *fakeFetcher) FetchStatus(ctx context.Context, postID string) (*weibo.PostMetadata, error) {
	f.mu.Lock()
	f.calls = append(f.calls, postID)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return weibo.ParsePostMetadata([]byte(f.body))
}

type fakeDownloader struct {
	mu    sync.Mutex
	tasks []downloader.Task
	fail  map[string]error
}

func (d *fakeDownloader) DownloadAll(ctx context.Context, tasks []downloader.Task) []downloader.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, tasks...)
	results := make([]downloader.Result, len(tasks))
	for i, t := range tasks {
		results[i] = downloader.Result{Task: t, Attempts: 1, Err: d.fail[t.Filename]}
	}
	return results
}

type memWriter struct {
	files map[string][]byte
}

func (m *memWriter) WriteFile(filename string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[filename] = buf.Bytes()
	return n, err
}

type recordingNotifier struct {
	mu       sync.Mutex
	success  []string
	failures []string
}

func (n *recordingNotifier) SendSuccess(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success = append(n.success, message)
}

func (n *recordingNotifier) SendError(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, message)
}

func newTestHandler(fetcher Fetcher, dl Downloader, log logger.Logger, opts Options) *Handler {
	return NewHandler(Deps{
		Fetcher:    fetcher,
		Namer:      naming.NewGenerator(time.FixedZone("CST", 8*3600)),
		Downloader: dl,
		Logger:     log,
	}, opts)
}

func TestHandlePostNamesEveryAsset(t *testing.T) {
	dl := &fakeDownloader{}
	h := newTestHandler(&fakeFetcher{body: livePost}, dl, logger.NewTestLogger(), Options{})

	outcome, err := h.HandlePost(context.Background(), "Nabc123")
	require.NoError(t, err)

	assert.NotEmpty(t, outcome.ActivationID)
	assert.Equal(t, "Nabc123", outcome.PostID)
	require.Len(t, outcome.Assets, 3)

	var names []string
	for _, task := range dl.tasks {
		names = append(names, task.Filename)
	}
	assert.Equal(t, []string{"240305102030.jpg", "240305102031.mp4", "240305102032.jpg"}, names)
	assert.Equal(t, resolver.KindLiveCompanion, dl.tasks[1].Kind)
	assert.Equal(t, 3, outcome.Succeeded())
	assert.Equal(t, 0, outcome.Failed())
}

func TestHandlePermalink(t *testing.T) {
	fetcher := &fakeFetcher{body: livePost}
	h := newTestHandler(fetcher, &fakeDownloader{}, logger.NewTestLogger(), Options{})

	_, err := h.HandlePermalink(context.Background(), "https://weibo.com/1234567/Nabc123?refer_flag=1001030103_")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nabc123"}, fetcher.calls)
}

func TestHandlePermalinkWithoutPostID(t *testing.T) {
	fetcher := &fakeFetcher{body: livePost}
	log := logger.NewTestLogger()
	h := newTestHandler(fetcher, &fakeDownloader{}, log, Options{})

	_, err := h.HandlePermalink(context.Background(), "/u/profile")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParse))
	assert.Empty(t, fetcher.calls)
	assert.True(t, log.HasMessage("cannot activate control"))
}

func TestFetchFailureAbandonsActivation(t *testing.T) {
	dl := &fakeDownloader{}
	notifier := &recordingNotifier{}
	log := logger.NewTestLogger()
	h := NewHandler(Deps{
		Fetcher:    &fakeFetcher{err: errs.New(errs.ErrorTypeDecode, "not json", nil)},
		Downloader: dl,
		Notifier:   notifier,
		Logger:     log,
	}, Options{NotifyOnError: true})

	outcome, err := h.HandlePost(context.Background(), "Nabc123")
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.Empty(t, dl.tasks)
	assert.True(t, log.HasMessage("Activation abandoned"))
	assert.Len(t, notifier.failures, 1)
}

func TestNamingFailureBeforeAnyDownload(t *testing.T) {
	dl := &fakeDownloader{}
	body := `{"pic_infos":{"p1":{"largest":{"url":"https://wx1.sinaimg.cn/large/p1.jpg"}}}}`
	h := newTestHandler(&fakeFetcher{body: body}, dl, logger.NewTestLogger(), Options{})

	_, err := h.HandlePost(context.Background(), "Nabc123")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNaming))
	assert.Empty(t, dl.tasks)
}

func TestPostWithoutMedia(t *testing.T) {
	dl := &fakeDownloader{}
	body := `{"created_at":"Tue Mar 05 10:20:30 +0800 2024","text_raw":"words only"}`
	h := newTestHandler(&fakeFetcher{body: body}, dl, logger.NewTestLogger(), Options{})

	outcome, err := h.HandlePost(context.Background(), "Nabc123")
	require.NoError(t, err)
	assert.Empty(t, outcome.Assets)
	assert.Empty(t, outcome.Results)
	assert.Empty(t, dl.tasks)
}

func TestSkipVideosKeepsIndices(t *testing.T) {
	dl := &fakeDownloader{}
	h := newTestHandler(&fakeFetcher{body: livePost}, dl, logger.NewTestLogger(), Options{SkipVideos: true})

	_, err := h.HandlePost(context.Background(), "Nabc123")
	require.NoError(t, err)
	require.Len(t, dl.tasks, 2)
	assert.Equal(t, "240305102030.jpg", dl.tasks[0].Filename)
	assert.Equal(t, "240305102032.jpg", dl.tasks[1].Filename)
}

func TestPartialFailureNotifies(t *testing.T) {
	dl := &fakeDownloader{fail: map[string]error{
		"240305102031.mp4": errs.New(errs.ErrorTypeStatus, "forbidden", nil),
	}}
	notifier := &recordingNotifier{}
	log := logger.NewTestLogger()
	h := NewHandler(Deps{
		Fetcher:    &fakeFetcher{body: livePost},
		Namer:      naming.NewGenerator(time.FixedZone("CST", 8*3600)),
		Downloader: dl,
		Notifier:   notifier,
		Logger:     log,
	}, Options{NotifyOnComplete: true, NotifyOnError: true})

	outcome, err := h.HandlePost(context.Background(), "Nabc123")
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Failed())
	assert.Equal(t, 2, outcome.Succeeded())
	assert.Len(t, notifier.failures, 1)
	assert.Empty(t, notifier.success)
	assert.True(t, log.HasMessage("Activation finished with failed assets"))
}

func TestSidecarWritten(t *testing.T) {
	sidecar := &memWriter{}
	h := NewHandler(Deps{
		Fetcher:    &fakeFetcher{body: livePost},
		Namer:      naming.NewGenerator(time.FixedZone("CST", 8*3600)),
		Downloader: &fakeDownloader{},
		Sidecar:    sidecar,
		Logger:     logger.NewTestLogger(),
	}, Options{SaveMetadata: true})

	_, err := h.HandlePost(context.Background(), "Nabc123")
	require.NoError(t, err)
	require.Contains(t, sidecar.files, "240305102030.json")
	assert.Contains(t, string(sidecar.files["240305102030.json"]), `"filename": "240305102031.mp4"`)
}

func TestConcurrentActivationOfSamePost(t *testing.T) {
	fetcher := &fakeFetcher{body: livePost, block: make(chan struct{})}
	h := newTestHandler(fetcher, &fakeDownloader{}, logger.NewTestLogger(), Options{})

	done := make(chan error, 1)
	go func() {
		_, err := h.HandlePost(context.Background(), "Nabc123")
		done <- err
	}()

	require.Eventually(t, func() bool {
		fetcher.mu.Lock()
		defer fetcher.mu.Unlock()
		return len(fetcher.calls) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := h.HandlePost(context.Background(), "Nabc123")
	assert.ErrorIs(t, err, ErrInFlight)

	close(fetcher.block)
	require.NoError(t, <-done)
}

func TestActivateRunsInBackground(t *testing.T) {
	dl := &fakeDownloader{}
	h := newTestHandler(&fakeFetcher{body: livePost}, dl, logger.NewTestLogger(), Options{})

	var mu sync.Mutex
	var outcomes []*Outcome
	h.OnOutcome(func(c *feed.Control, o *Outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.NoError(t, err)
		assert.Equal(t, "https://weibo.com/1234567/Nabc123", c.Permalink)
		outcomes = append(outcomes, o)
	})

	control := feed.NewControl("https://weibo.com/1234567/Nabc123", h)
	control.Activate(context.Background())
	h.Wait()

	require.Len(t, outcomes, 1)
	assert.Equal(t, "Nabc123", outcomes[0].PostID)
	assert.Len(t, dl.tasks, 3)
}

func TestPlanDoesNotDownload(t *testing.T) {
	dl := &fakeDownloader{}
	h := newTestHandler(&fakeFetcher{body: livePost}, dl, logger.NewTestLogger(), Options{})

	plan, err := h.Plan(context.Background(), "Nabc123")
	require.NoError(t, err)
	assert.Len(t, plan.Tasks, 3)
	assert.Equal(t, "Nabc123", plan.Post.ID())
	assert.Empty(t, dl.tasks)
}
