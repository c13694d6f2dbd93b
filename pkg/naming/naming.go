// Package naming derives filenames for a post's assets from its creation
// time.
package naming

import (
	"fmt"
	"strings"
	"time"

	errs "weibodl/pkg/errors"
)

// Layout is the timestamp part of every filename: yyMMddHHmmss
const Layout = "060102150405"

// Post is the part of the metadata the generator needs
type Post interface {
	CreatedAt() (time.Time, error)
}

// Generator builds filenames in a fixed location
type Generator struct {
	Location *time.Location
}

// NewGenerator creates a generator for loc, defaulting to the local zone
func NewGenerator(loc *time.Location) *Generator {
	if loc == nil {
		loc = time.Local
	}
	return &Generator{Location: loc}
}

// Generate returns the creation time plus index seconds in the generator's
// location, formatted as yyMMddHHmmss.ext. Distinct indices of one post
// produce distinct names.
func (g *Generator) Generate(post Post, index int, ext string) (string, error) {
	created, err := post.CreatedAt()
	if err != nil {
		return "", errs.New(errs.ErrorTypeNaming, fmt.Sprintf("no usable creation time: %v", err), err)
	}
	if index < 0 {
		return "", errs.New(errs.ErrorTypeNaming, fmt.Sprintf("negative index %d", index), nil)
	}

	loc := g.Location
	if loc == nil {
		loc = time.Local
	}

	stamp := created.In(loc).Add(time.Duration(index) * time.Second).Format(Layout)
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return stamp, nil
	}
	return stamp + "." + ext, nil
}
