package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	humanize "github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/lectern/library"
)

const storeTimeout = 10 * time.Second

var (
	historyFilter string

	historyTitleStyle = lipgloss.NewStyle().Bold(true)
	historyMetaStyle  = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})
	historyProgressStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#89F0CB"})

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recently read documents",
		Long:  paragraph("\nList recently read documents, newest first, with their saved positions. Resume one with " + keyword("lectern resume <id>") + "."),
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
)

func init() {
	historyCmd.Flags().StringVarP(&historyFilter, "filter", "f", "", "fuzzy filter by title")
}

func runHistory(*cobra.Command, []string) error {
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
	defer store.Close() //nolint:errcheck

	recs, err := store.History(ctx)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if historyFilter != "" {
		recs = filterHistory(recs, historyFilter)
	}
	if len(recs) == 0 {
		fmt.Println("No reading history yet.")
		return nil
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })

	marks, err := store.Bookmarks(ctx)
	if err != nil {
		return fmt.Errorf("read bookmarks: %w", err)
	}
	markByKey := make(map[string]library.Bookmark, len(marks))
	for _, b := range marks {
		markByKey[b.ContentKey] = b
	}

	for _, rec := range recs {
		progress := ""
		if b, ok := markByKey[rec.ID]; ok && b.Total > 0 {
			progress = historyProgressStyle.Render(fmt.Sprintf("  %.f%% read", b.Ratio*100))
		}
		fmt.Printf("%s %s%s\n", historyTitleStyle.Render(rec.Title),
			historyMetaStyle.Render(humanize.Time(rec.CreatedAt)), progress)
		fmt.Printf("  %s\n", historyMetaStyle.Render(rec.ID))
	}
	return nil
}

// historySource adapts history records for fuzzy matching.
type historySource []library.HistoryRecord

func (s historySource) String(i int) string { return s[i].Title }
func (s historySource) Len() int            { return len(s) }

func filterHistory(recs []library.HistoryRecord, term string) []library.HistoryRecord {
	matches := fuzzy.FindFrom(term, historySource(recs))
	out := make([]library.HistoryRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, recs[m.Index])
	}
	return out
}
