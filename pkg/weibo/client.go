package weibo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"weibodl/pkg/config"
	errs "weibodl/pkg/errors"
	"weibodl/pkg/logger"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// DefaultFetchTimeout bounds a single metadata fetch
const DefaultFetchTimeout = 8 * time.Second

// Client fetches post metadata and feed pages from weibo.com
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	apiBase    string
	timeout    time.Duration
	logger     logger.Logger
}

// NewClient creates a new Weibo client
func NewClient(cfg config.WeiboConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	referer := cfg.Referer
	if referer == "" {
		referer = BaseURL + "/"
	}

	c := &Client{
		httpClient: &http.Client{},
		headers: map[string]string{
			"User-Agent":       userAgent,
			"Referer":          referer,
			"Accept":           "application/json, text/plain, */*",
			"Accept-Language":  "zh-CN,zh;q=0.9,en;q=0.8",
			"X-Requested-With": "XMLHttpRequest",
		},
		apiBase: cfg.APIBase,
		timeout: timeout,
		logger:  log.WithField("component", "weibo"),
	}
	if cfg.Cookie != "" {
		c.SetCookie(cfg.Cookie)
	}
	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetCookie sets the session cookie sent with every request
func (c *Client) SetCookie(cookie string) {
	c.headers["Cookie"] = cookie
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// doRequest performs a GET bounded by the fetch timeout and returns the body
// of a 2xx response
func (c *Client) doRequest(ctx context.Context, url string, accept string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParse, fmt.Sprintf("failed to create request: %v", err), err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"url": url,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := errs.ClassifyTransport("request failed", err)
		c.logger.WithError(err).ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":        url,
			"error_type": string(classified.Type),
			"duration":   time.Since(start),
		})
		return nil, classified
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.ClassifyTransport("failed to read response body", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start),
	})

	return body, nil
}

// checkResponseStatus reports non-2xx responses as network errors carrying
// the status code
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	c.logger.WarnWithFields("unexpected response status", map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	})
	return &errs.Error{
		Type:    errs.ErrorTypeNetwork,
		Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		Code:    resp.StatusCode,
	}
}

// FetchStatus fetches the metadata of one post. It issues exactly one
// request; callers decide whether to try again.
func (c *Client) FetchStatus(ctx context.Context, postID string) (*PostMetadata, error) {
	url := StatusShowURL(c.apiBase, postID)

	body, err := c.doRequest(ctx, url, "")
	if err != nil {
		return nil, fmt.Errorf("fetch status %s: %w", postID, err)
	}

	post, err := ParsePostMetadata(body)
	if err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.WithError(err).ErrorWithFields("failed to decode status", map[string]interface{}{
			"post_id":      postID,
			"body_preview": preview,
		})
		return nil, fmt.Errorf("fetch status %s: %w", postID, err)
	}

	return post, nil
}

// FetchPage fetches a feed HTML page
func (c *Client) FetchPage(ctx context.Context, url string) ([]byte, error) {
	body, err := c.doRequest(ctx, url, "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	return body, nil
}
