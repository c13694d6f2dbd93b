package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"weibodl/pkg/config"
	"weibodl/pkg/weibo"
)

// AttachPredicate decides whether an anchor gets a download control
type AttachPredicate func(a *Anchor) bool

// NewAttachPredicate returns the predicate for policy
func NewAttachPredicate(policy string, excludedBadges []string) AttachPredicate {
	if strings.EqualFold(policy, config.AttachAlways) {
		return attachAlways
	}
	return strictPredicate(excludedBadges)
}

func attachAlways(a *Anchor) bool {
	return a.Permalink() != ""
}

// strictPredicate attaches only when the post box shows picture or video
// markers. Reposted content is judged by the outer box; collapsed repost
// wrappers never qualify.
func strictPredicate(excludedBadges []string) AttachPredicate {
	return func(a *Anchor) (ok bool) {
		defer func() {
			if recover() != nil {
				ok = false
			}
		}()

		if !weibo.PermalinkPattern.MatchString(a.Permalink()) {
			return false
		}

		box := a.sel.Parent().Parent()
		if box.Length() == 0 {
			return false
		}

		if box.HasClass("WB_func") {
			box = box.Parent()
		} else if box.Find(".WB_feed_expand").Length() > 0 {
			return false
		}

		pictures := box.Find(".WB_pic").FilterFunction(func(_ int, s *goquery.Selection) bool {
			for _, badge := range excludedBadges {
				if s.HasClass(badge) {
					return false
				}
			}
			return true
		})

		return pictures.Length() > 0 || box.Find(".WB_video").Length() > 0
	}
}
