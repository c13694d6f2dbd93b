package resolver

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"weibodl/pkg/logger"
	"weibodl/pkg/weibo"
)

// Kind classifies a resolved asset
type Kind string

const (
	KindImage         Kind = "image"
	KindAnimatedImage Kind = "animated-image"
	KindVideo         Kind = "video"
	KindLiveCompanion Kind = "live-companion-video"
)

// Branch names
const (
	BranchPictures = "pictures"
	BranchVideo    = "video"
	BranchStory    = "story"
	BranchCard     = "card"
)

// IsVideo reports whether assets of this kind are videos
func (k Kind) IsVideo() bool {
	return k == KindVideo || k == KindLiveCompanion
}

// Asset is one downloadable file of a post
type Asset struct {
	URL    string `json:"url"`
	Kind   Kind   `json:"kind"`
	Index  int    `json:"index"`
	Ext    string `json:"ext"`
	Branch string `json:"branch"`
}

// Branch is one payload shape the resolver knows how to read. Match reports
// false when the shape is absent or yields no assets.
type Branch struct {
	Name  string
	Match func(post *weibo.PostMetadata) ([]Asset, bool)
}

var animatedExtensions = map[string]bool{
	"gif": true,
}

var trailingWord = regexp.MustCompile(`\w+$`)

var (
	largestURL   = mustCompile(`.largest.url`)
	companionURL = mustCompile(`.video`)

	playbackURL = mustCompile(`.page_info.media_info.playback_list[0].play_info.url`)
	legacyURLs  = []*jqPath{
		mustCompile(`.page_info.media_info.mp4_720p_mp4`),
		mustCompile(`.page_info.media_info.mp4_hd_url`),
		mustCompile(`.page_info.media_info.mp4_sd_url`),
		mustCompile(`.page_info.media_info.stream_url_hd`),
		mustCompile(`.page_info.media_info.stream_url`),
	}

	storyURL = mustCompile(`.page_info.slide_cover.playback_list[0].play_info.url`)
	cardURL  = mustCompile(`.page_info.page_pic.url`)
)

// DefaultBranches returns the branches in priority order
func DefaultBranches() []Branch {
	return []Branch{
		{Name: BranchPictures, Match: matchPictures},
		{Name: BranchVideo, Match: matchVideo},
		{Name: BranchStory, Match: matchStory},
		{Name: BranchCard, Match: matchCard},
	}
}

// Resolver turns post metadata into an ordered list of assets
type Resolver struct {
	branches []Branch
	logger   logger.Logger
}

// New creates a resolver using the default branches
func New(log logger.Logger) *Resolver {
	return NewWithBranches(DefaultBranches(), log)
}

// NewWithBranches creates a resolver with a custom branch list
func NewWithBranches(branches []Branch, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Resolver{branches: branches, logger: log}
}

// Resolve evaluates branches in order and returns the assets of the first
// one that matches. No match yields an empty slice.
func (r *Resolver) Resolve(post *weibo.PostMetadata) []Asset {
	if post == nil {
		return []Asset{}
	}

	for _, b := range r.branches {
		assets, ok := b.Match(post)
		if !ok || len(assets) == 0 {
			continue
		}
		for i := range assets {
			assets[i].Branch = b.Name
		}
		r.logger.DebugWithFields("branch matched", map[string]interface{}{
			"post_id": post.ID(),
			"branch":  b.Name,
			"assets":  len(assets),
		})
		return assets
	}

	r.logger.InfoWithFields("no media found in post", map[string]interface{}{
		"post_id": post.ID(),
	})
	return []Asset{}
}

// Resolve resolves with the default branches
func Resolve(post *weibo.PostMetadata) []Asset {
	return New(nil).Resolve(post)
}

func matchPictures(post *weibo.PostMetadata) ([]Asset, bool) {
	entries, ok := post.PictureEntries()
	if !ok || len(entries) == 0 {
		return nil, false
	}

	assets := make([]Asset, 0, len(entries))
	index := 0
	for _, entry := range entries {
		animated := false
		if still, ok := largestURL.str(entry.Value); ok {
			ext := extensionOf(still, "jpg")
			kind := KindImage
			if animatedExtensions[ext] {
				kind = KindAnimatedImage
				animated = true
			}
			assets = append(assets, Asset{URL: still, Kind: kind, Index: index, Ext: ext})
			index++
		}

		if animated {
			continue
		}
		if video, ok := companionURL.str(entry.Value); ok {
			assets = append(assets, Asset{URL: video, Kind: KindLiveCompanion, Index: index, Ext: "mp4"})
			index++
		}
	}

	return assets, len(assets) > 0
}

func matchVideo(post *weibo.PostMetadata) ([]Asset, bool) {
	doc := post.Document()
	u, ok := playbackURL.str(doc)
	if !ok {
		u, ok = firstString(doc, legacyURLs...)
	}
	if !ok {
		return nil, false
	}
	return []Asset{{URL: u, Kind: KindVideo, Index: 0, Ext: "mp4"}}, true
}

func matchStory(post *weibo.PostMetadata) ([]Asset, bool) {
	u, ok := storyURL.str(post.Document())
	if !ok {
		return nil, false
	}
	return []Asset{{URL: u, Kind: KindVideo, Index: 0, Ext: "mp4"}}, true
}

func matchCard(post *weibo.PostMetadata) ([]Asset, bool) {
	u, ok := cardURL.str(post.Document())
	if !ok {
		return nil, false
	}
	ext := extensionOf(u, "jpg")
	kind := KindImage
	if animatedExtensions[ext] {
		kind = KindAnimatedImage
	}
	return []Asset{{URL: u, Kind: kind, Index: 0, Ext: ext}}, true
}

// extensionOf derives a file extension from the final path segment of
// rawURL, falling back to def
func extensionOf(rawURL, def string) string {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		p = parsed.Path
	}
	base := path.Base(p)
	if !strings.Contains(base, ".") {
		return def
	}
	ext := trailingWord.FindString(base)
	if ext == "" {
		return def
	}
	return strings.ToLower(ext)
}
