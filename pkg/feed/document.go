package feed

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// seenClass marks anchors a scan has already examined
	seenClass = "wbdl-seen"
	// controlAttr marks injected download controls
	controlAttr = "data-wbdl-control"
)

// Page is a feed document the scanner can enumerate and augment
type Page interface {
	// Candidates returns the unmarked anchors matching selector
	Candidates(selector string) []*Anchor
	// InsertControl appends a download control next to the anchor
	InsertControl(anchor *Anchor, label string) error
}

// Anchor is a post permalink node
type Anchor struct {
	sel *goquery.Selection
	// occurrence counts earlier anchors with the same href in the document
	occurrence int
}

// Permalink returns the anchor's href
func (a *Anchor) Permalink() string {
	href, _ := a.sel.Attr("href")
	return href
}

// Key identifies the anchor for idempotency. The permalink alone is not
// enough since several reposts of one post each embed its permalink, so the
// key also names the enclosing feed item by its mid. Outside a feed item the
// anchor's position among same-href anchors stands in. Both survive a reload
// of the same feed. Anchors without an href are keyed by the node itself.
func (a *Anchor) Key() string {
	href := a.Permalink()
	if href == "" {
		return fmt.Sprintf("node:%p", a.sel.Get(0))
	}
	if mid := itemID(a.sel); mid != "" {
		return href + "@" + mid
	}
	return fmt.Sprintf("%s#%d", href, a.occurrence)
}

// itemID returns the mid of the closest feed item holding s
func itemID(s *goquery.Selection) string {
	item := s.Closest("[mid], [omid]")
	if mid, ok := item.Attr("mid"); ok && mid != "" {
		return mid
	}
	omid, _ := item.Attr("omid")
	return omid
}

// Selection exposes the underlying node
func (a *Anchor) Selection() *goquery.Selection {
	return a.sel
}

func (a *Anchor) mark() {
	a.sel.AddClass(seenClass)
}

// Document is a parsed feed page
type Document struct {
	doc *goquery.Document
}

// NewDocument parses a feed page
func NewDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &Document{doc: doc}, nil
}

// NewDocumentFromString parses a feed page held in memory
func NewDocumentFromString(s string) (*Document, error) {
	return NewDocument(strings.NewReader(s))
}

// Candidates returns anchors matching selector that are not yet marked
func (d *Document) Candidates(selector string) []*Anchor {
	var anchors []*Anchor
	seen := make(map[string]int)
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		n := seen[href]
		seen[href] = n + 1
		if s.HasClass(seenClass) {
			return
		}
		anchors = append(anchors, &Anchor{sel: s, occurrence: n})
	})
	return anchors
}

// InsertControl appends <a class="S_txt2">label</a> to the anchor's parent
func (d *Document) InsertControl(anchor *Anchor, label string) error {
	parent := anchor.sel.Parent()
	if parent.Length() == 0 {
		return fmt.Errorf("anchor has no parent")
	}
	parent.AppendHtml(fmt.Sprintf(`<a class="S_txt2" %s="%s">%s</a>`,
		controlAttr, html.EscapeString(anchor.Permalink()), html.EscapeString(label)))
	return nil
}

// Controls returns the permalinks of every injected control
func (d *Document) Controls() []string {
	var links []string
	d.doc.Find("[" + controlAttr + "]").Each(func(_ int, s *goquery.Selection) {
		link, _ := s.Attr(controlAttr)
		links = append(links, link)
	})
	return links
}

// HTML renders the (possibly augmented) document
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}
