package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/lectern/extract"
	"github.com/dgnsrekt/lectern/ui"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [SOURCE]",
	Short: "Print a summary of a document",
	Long:  paragraph("\nExtract a document and print its summary to stdout. Needs a configured gateway or OPENAI_API_KEY."),
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSummarize,
}

func runSummarize(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var gateway *extract.Client
	if cfg.GatewayURL != "" {
		gateway = extract.NewClient(extract.ClientConfig{
			BaseURL: cfg.GatewayURL,
			Token:   cfg.GatewayToken,
		})
	}
	summarizer := pickSummarizer(gateway)
	if summarizer == nil {
		return errors.New("no summarizer configured: set gateway.url or OPENAI_API_KEY")
	}

	src, err := summarizeSource(args)
	if err != nil {
		return err
	}

	deps := ui.Deps{Gateway: gateway, Summarizer: summarizer}
	if cache, err := extract.NewCache(cfg.CacheDir); err == nil {
		deps.Cache = cache
	} else {
		log.Warn("extraction cache disabled", "error", err)
	}

	ctx := context.Background()
	doc, _, err := ui.LoadDocument(ctx, deps, src)
	if err != nil {
		return err
	}

	summary, err := summarizer.Summarize(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	var gs glamour.TermRendererOption
	if style == styles.AutoStyle {
		gs = glamour.WithAutoStyle()
	} else {
		gs = glamour.WithStylePath(style)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		gs,
		glamour.WithWordWrap(int(width)), //nolint:gosec
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(summary)
	if err != nil {
		return fmt.Errorf("unable to render summary: %w", err)
	}
	fmt.Fprint(os.Stdout, out)
	return nil
}

func summarizeSource(args []string) (ui.Source, error) {
	if len(args) == 1 {
		return sourceFromArg(args[0])
	}
	if yes, err := stdinIsPipe(); err != nil {
		return ui.Source{}, err
	} else if yes {
		return sourceFromStdin()
	}
	return ui.Source{}, errors.New("missing source: pass a file, a URL, or pipe text in")
}
