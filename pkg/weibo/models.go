package weibo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	errs "weibodl/pkg/errors"
)

// Layouts accepted for created_at
var createdAtLayouts = []string{
	"Mon Jan 02 15:04:05 -0700 2006",
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

// PostMetadata is the decoded status object. It is never normalized: every
// field is optional and consumers look up the paths they need.
type PostMetadata struct {
	raw    []byte
	doc    map[string]any
	fields map[string]json.RawMessage
}

// PictureEntry is one member of the picture collection, in source order
type PictureEntry struct {
	Key   string
	Value any
}

// ParsePostMetadata decodes a status response body. Anything other than a
// well-formed JSON object is a decode error.
func ParsePostMetadata(data []byte) (*PostMetadata, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.New(errs.ErrorTypeDecode, fmt.Sprintf("status is not a JSON object: %v", err), err)
	}
	if doc == nil {
		return nil, errs.New(errs.ErrorTypeDecode, "status is null", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errs.New(errs.ErrorTypeDecode, fmt.Sprintf("status is not a JSON object: %v", err), err)
	}

	return &PostMetadata{raw: data, doc: doc, fields: fields}, nil
}

// Raw returns the response body as received
func (p *PostMetadata) Raw() []byte {
	return p.raw
}

// Document returns the decoded object for jq path lookups
func (p *PostMetadata) Document() map[string]any {
	return p.doc
}

// String returns the top-level field key when it is a string
func (p *PostMetadata) String(key string) (string, bool) {
	s, ok := p.doc[key].(string)
	return s, ok
}

// ID returns the post's short id, falling back to the numeric id
func (p *PostMetadata) ID() string {
	if id, ok := p.String("mblogid"); ok && id != "" {
		return id
	}
	if id, ok := p.String("idstr"); ok {
		return id
	}
	return ""
}

// CreatedAt parses the creation timestamp
func (p *PostMetadata) CreatedAt() (time.Time, error) {
	value, ok := p.String("created_at")
	if !ok || value == "" {
		return time.Time{}, fmt.Errorf("created_at missing")
	}

	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("created_at %q has an unknown layout", value)
}

// PictureEntries walks the pic_infos object in source key order. ok is
// false when the field is absent or not an object.
func (p *PostMetadata) PictureEntries() (entries []PictureEntry, ok bool) {
	raw, present := p.fields["pic_infos"]
	if !present {
		return nil, false
	}
	entries, err := orderedEntries(raw)
	if err != nil {
		return nil, false
	}
	return entries, true
}

func orderedEntries(raw json.RawMessage) ([]PictureEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, isDelim := tok.(json.Delim); !isDelim || delim != '{' {
		return nil, fmt.Errorf("not an object")
	}

	var entries []PictureEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, isKey := tok.(string)
		if !isKey {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		entries = append(entries, PictureEntry{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return entries, nil
}
