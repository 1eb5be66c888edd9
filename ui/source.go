package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/lectern/extract"
	"github.com/dgnsrekt/lectern/library"
	"github.com/dgnsrekt/lectern/speech"
)

// Source describes where the document text comes from. Exactly one of
// Text, URL, or Path is set.
type Source struct {
	Kind  library.SourceType
	Title string
	URL   string // remote article to run through the gateway
	Path  string // local file, watched for changes while reading
	Text  string // pre-read text, e.g. from stdin

	// ResumeKey reuses an earlier session's content key instead of
	// minting a new one, and ResumeIndex restores its position.
	ResumeKey   string
	ResumeIndex int
}

// Deps are the long-lived collaborators behind the reader. Synth and
// Store are required; the others degrade gracefully when nil.
type Deps struct {
	Synth      speech.Synthesizer
	Store      library.Store
	Gateway    *extract.Client    // nil disables remote extraction
	Summarizer extract.Summarizer // nil disables the summary overlay
	Cache      *extract.Cache     // nil disables extraction caching
}

// LoadDocument turns a source into a document and its speakable units.
func LoadDocument(ctx context.Context, deps Deps, src Source) (library.Document, []speech.Unit, error) {
	res, err := extractSource(ctx, deps, src)
	if err != nil {
		return library.Document{}, nil, err
	}

	units := speech.Split(res.Content)

	title := res.Title
	if title == "" {
		title = src.Title
	}
	if title == "" {
		title = src.URL
	}
	if title == "" {
		title = "Untitled"
	}

	doc := library.NewDocument(title, res.Content, src.Kind, src.URL, len(units))
	if src.URL == "" && src.Path != "" {
		// Local files keep their address too, so their bookmarks can be
		// resumed.
		doc.SourceURL = "file://" + src.Path
	}
	if src.ResumeKey != "" {
		doc.ContentKey = src.ResumeKey
	}
	return doc, units, nil
}

// extractSource resolves the source's text. URLs go through the
// gateway (and the cache when present); PDFs go through the gateway
// when one is configured and are parsed locally otherwise; everything
// else is treated as markdown.
func extractSource(ctx context.Context, deps Deps, src Source) (extract.Result, error) {
	switch {
	case src.Text != "":
		content, err := extract.SpeakableText([]byte(src.Text))
		if err != nil {
			return extract.Result{}, err
		}
		return extract.Result{Content: content, Title: src.Title}, nil

	case src.URL != "":
		if deps.Cache != nil {
			if res, ok := deps.Cache.Get(src.URL); ok {
				log.Debug("extraction cache hit", "url", src.URL)
				return res, nil
			}
		}
		if deps.Gateway == nil {
			return extract.Result{}, errors.New("no extraction gateway configured")
		}
		res, err := deps.Gateway.ExtractURL(ctx, src.URL)
		if err != nil {
			return extract.Result{}, err
		}
		if deps.Cache != nil {
			if err := deps.Cache.Put(src.URL, res); err != nil {
				log.Debug("extraction cache write failed", "error", err)
			}
		}
		return res, nil

	case src.Path != "":
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return extract.Result{}, err
		}
		name := filepath.Base(src.Path)
		title := strings.TrimSuffix(name, filepath.Ext(name))

		if strings.EqualFold(filepath.Ext(name), ".pdf") {
			if deps.Gateway != nil {
				res, err := deps.Gateway.ExtractFile(ctx, name, data)
				if err != nil {
					return extract.Result{}, err
				}
				if res.Title == "" {
					res.Title = title
				}
				return res, nil
			}
			return extract.ParsePDF(data, title)
		}

		content, err := extract.SpeakableText(data)
		if err != nil {
			return extract.Result{}, err
		}
		return extract.Result{Content: content, Title: title}, nil
	}

	return extract.Result{}, errors.New("empty source")
}
