package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/lectern/library"
	"github.com/dgnsrekt/lectern/ui"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [ID]",
	Short: "Pick up where you left off",
	Long:  paragraph("\nResume a bookmarked document from its saved position. With no argument the most recently updated bookmark is used; find ids with " + keyword("lectern history") + "."),
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResume,
}

func runResume(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	store, err := library.Open(ctx, storageConfig(cfg))
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}

	bm, err := pickBookmark(ctx, store, args)
	_ = store.Close()
	if err != nil {
		return err
	}

	src, err := resumeSource(bm)
	if err != nil {
		return err
	}
	return runTUI(src)
}

func pickBookmark(ctx context.Context, store library.Store, args []string) (library.Bookmark, error) {
	if len(args) == 1 {
		bm, ok, err := store.Bookmark(ctx, args[0])
		if err != nil {
			return library.Bookmark{}, fmt.Errorf("read bookmark: %w", err)
		}
		if !ok {
			return library.Bookmark{}, fmt.Errorf("no bookmark with id %s", args[0])
		}
		return bm, nil
	}

	marks, err := store.Bookmarks(ctx)
	if err != nil {
		return library.Bookmark{}, fmt.Errorf("read bookmarks: %w", err)
	}
	if len(marks) == 0 {
		return library.Bookmark{}, errors.New("nothing to resume yet")
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].UpdatedAt.After(marks[j].UpdatedAt) })
	return marks[0], nil
}

// resumeSource rebuilds a source from a bookmark. Only documents with
// an address can be re-fetched; piped text cannot.
func resumeSource(bm library.Bookmark) (ui.Source, error) {
	src := ui.Source{
		Kind:        bm.SourceType,
		Title:       bm.Title,
		ResumeKey:   bm.ContentKey,
		ResumeIndex: bm.Index,
	}
	switch {
	case strings.HasPrefix(bm.SourceURL, "file://"):
		src.Path = strings.TrimPrefix(bm.SourceURL, "file://")
	case bm.SourceURL != "":
		src.URL = bm.SourceURL
	default:
		return ui.Source{}, fmt.Errorf("%q was read from a stream and cannot be re-fetched", bm.Title)
	}
	return src, nil
}
