// Package metadata writes a JSON sidecar describing a post and the files
// downloaded for it.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"weibodl/pkg/weibo"
)

// PostRecord is the sidecar document for one activation
type PostRecord struct {
	ID           string          `json:"id"`
	Author       Author          `json:"author"`
	Text         string          `json:"text,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	DownloadedAt time.Time       `json:"downloaded_at"`
	Assets       []AssetRecord   `json:"assets"`
	Status       json.RawMessage `json:"status"`
}

// Author identifies the post's owner
type Author struct {
	ID         string `json:"id,omitempty"`
	ScreenName string `json:"screen_name,omitempty"`
}

// AssetRecord describes one resolved asset
type AssetRecord struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// FileWriter stores a file in the output directory
type FileWriter interface {
	WriteFile(filename string, r io.Reader) (int64, error)
}

// FromPost builds a record from fetched metadata
func FromPost(post *weibo.PostMetadata, assets []AssetRecord) *PostRecord {
	rec := &PostRecord{
		ID:           post.ID(),
		DownloadedAt: time.Now(),
		Assets:       assets,
		Status:       json.RawMessage(post.Raw()),
	}
	if created, err := post.CreatedAt(); err == nil {
		rec.CreatedAt = created
	}

	if text, ok := post.String("text_raw"); ok {
		rec.Text = text
	} else if text, ok := post.String("text"); ok {
		rec.Text = text
	}

	if user, ok := post.Document()["user"].(map[string]any); ok {
		if name, ok := user["screen_name"].(string); ok {
			rec.Author.ScreenName = name
		}
		if id, ok := user["idstr"].(string); ok {
			rec.Author.ID = id
		}
	}

	return rec
}

// Write stores rec as filename through w
func Write(w FileWriter, filename string, rec *PostRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if _, err := w.WriteFile(filename, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// Load reads a sidecar file
func Load(path string) (*PostRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var rec PostRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &rec, nil
}

// FormattedText returns the post text on one line, truncated to maxLength
// characters
func (r *PostRecord) FormattedText(maxLength int) string {
	text := strings.Join(strings.Fields(r.Text), " ")
	runes := []rune(text)
	if maxLength > 3 && len(runes) > maxLength {
		return string(runes[:maxLength-3]) + "..."
	}
	return text
}
