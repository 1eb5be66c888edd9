// Package library keeps what the reader has read. Loaded documents
// become history records, and bookmarks remember where playback
// stopped so a session can be resumed later.
package library

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceType says where a document's text came from.
type SourceType string

const (
	SourceURL  SourceType = "url"
	SourcePDF  SourceType = "pdf"
	SourceText SourceType = "text"
)

// previewLen bounds the history preview snippet.
const previewLen = 200

// Document is one loaded reading session. The full text lives only in
// memory; history keeps a preview.
type Document struct {
	ContentKey string
	Title      string
	Text       string
	SourceType SourceType
	SourceURL  string
	Units      int
}

// NewDocument assigns a fresh content key. The key doubles as the
// history record id and the bookmark identity.
func NewDocument(title, text string, sourceType SourceType, sourceURL string, units int) Document {
	return Document{
		ContentKey: uuid.NewString(),
		Title:      title,
		Text:       text,
		SourceType: sourceType,
		SourceURL:  sourceURL,
		Units:      units,
	}
}

// Record builds the history record for this document.
func (d Document) Record(now time.Time) HistoryRecord {
	return HistoryRecord{
		ID:         d.ContentKey,
		Title:      d.Title,
		SourceType: d.SourceType,
		SourceURL:  d.SourceURL,
		Preview:    preview(d.Text),
		Units:      d.Units,
		CreatedAt:  now,
	}
}

// HistoryRecord is an append-only trace of a loaded document.
type HistoryRecord struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	SourceType SourceType `json:"sourceType"`
	SourceURL  string     `json:"sourceUrl,omitempty"`
	Preview    string     `json:"preview"`
	Units      int        `json:"units"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Bookmark remembers the playback position for one document. There is
// at most one per content key; saves replace the previous position.
type Bookmark struct {
	ContentKey string     `json:"contentKey"`
	Title      string     `json:"title"`
	SourceType SourceType `json:"sourceType"`
	SourceURL  string     `json:"sourceUrl,omitempty"`
	Index      int        `json:"index"`
	Total      int        `json:"total"`
	Ratio      float64    `json:"ratio"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// preview clips text to the first previewLen bytes at a word boundary.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= previewLen {
		return text
	}
	clipped := text[:previewLen]
	if i := strings.LastIndexByte(clipped, ' '); i > 0 {
		clipped = clipped[:i]
	}
	return clipped
}
