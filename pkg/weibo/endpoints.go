package weibo

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	errs "weibodl/pkg/errors"
)

const (
	// BaseURL is the base URL for weibo.com
	BaseURL = "https://weibo.com"

	// DefaultAPIBase is the AJAX API root used by the web client
	DefaultAPIBase = BaseURL + "/ajax"

	// StatusShowEndpoint returns the full metadata of one post
	StatusShowEndpoint = "/statuses/show"
)

// PermalinkPattern extracts the post id from a permalink of the form
// <user id>/<post id>
var PermalinkPattern = regexp.MustCompile(`\d+/(\w+)`)

var bareIDPattern = regexp.MustCompile(`^\w+$`)

// StatusShowURL constructs the metadata URL for a post
func StatusShowURL(apiBase, postID string) string {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	params := url.Values{}
	params.Set("id", postID)

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(apiBase, "/"), StatusShowEndpoint, params.Encode())
}

// ParsePermalink returns the post id embedded in a permalink href
func ParsePermalink(href string) (string, error) {
	m := PermalinkPattern.FindStringSubmatch(href)
	if m == nil {
		return "", &errs.Error{
			Type:    errs.ErrorTypeParse,
			Message: fmt.Sprintf("no post id in permalink %q", href),
		}
	}
	return m[1], nil
}

// ParsePostID accepts either a bare post id or a permalink
func ParsePostID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if bareIDPattern.MatchString(input) {
		return input, nil
	}
	return ParsePermalink(input)
}
