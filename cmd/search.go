// Package cmd — search command.
// Orchestrates the pipeline: load source → guard check → session →
// query → enrich → render/print.
//
// It handles flag validation, structural filter selection, renderer
// selection, and the one-shot / watch / interactive modes.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/fetch"
	"github.com/gaurav-prasanna/pagegrep/core/grep"
	"github.com/gaurav-prasanna/pagegrep/core/output"
	"github.com/gaurav-prasanna/pagegrep/core/render"
	"github.com/gaurav-prasanna/pagegrep/logger"
	"github.com/gaurav-prasanna/pagegrep/source"
	"github.com/gaurav-prasanna/pagegrep/tui"
)

// Oversized-document guard: pages past either threshold are declined
// before the engine is ever invoked. The engine itself has no size
// ceiling and will scan whatever it is asked to.
const (
	maxElements  = 50_000
	maxTextBytes = 10 << 20 // 10 MiB
)

// Flag variables.
var (
	flagCode     bool
	flagHeadings bool
	flagLinks    bool
	flagImages   bool

	flagJSON     bool
	flagMarkdown bool
	flagPDF      bool

	flagOutputDir   string
	flagLimit       int
	flagWatch       bool
	flagPoll        time.Duration
	flagInteractive bool
)

var searchCmd = &cobra.Command{
	Use:   "search <url|file> [query...]",
	Short: "Search a page for fuzzy-matching text",
	Long: `Search loads the page, indexes its visible text, and ranks lines whose
characters contain every query term as an in-order subsequence.

Examples:
  pagegrep search https://example.com/docs install steps
  pagegrep search notes.html todo --code
  pagegrep search https://example.com api --links --headings --json
  pagegrep search notes.html --interactive
  pagegrep search notes.html todo --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	// Structural filters (combine by union).
	searchCmd.Flags().BoolVar(&flagCode, "code", false, "Search code blocks")
	searchCmd.Flags().BoolVar(&flagHeadings, "headings", false, "Search headings")
	searchCmd.Flags().BoolVar(&flagLinks, "links", false, "Search link text")
	searchCmd.Flags().BoolVar(&flagImages, "images", false, "Search image alt/title text")

	// Output format flags (mutually exclusive; default is plain terminal output).
	searchCmd.Flags().BoolVar(&flagJSON, "json", false, "Write a JSON report")
	searchCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Write a Markdown report")
	searchCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Write a PDF report")
	searchCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Report directory (default: current directory)")

	searchCmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum results to show and enrich")
	searchCmd.Flags().BoolVar(&flagWatch, "watch", false, "Re-run the query when a local file changes")
	searchCmd.Flags().DurationVar(&flagPoll, "poll", 0, "Re-fetch interval for URL pages (0 disables)")
	searchCmd.Flags().BoolVar(&flagInteractive, "interactive", false, "Open the interactive search overlay")
}

func runSearch(cmd *cobra.Command, args []string) error {
	target := args[0]
	query := strings.Join(args[1:], " ")

	if err := validateFlags(query); err != nil {
		return err
	}
	filters := activeFilters()

	logger.Section("load")
	src, err := openSource(cmd.Context(), target)
	if err != nil {
		return err
	}
	defer src.Close()

	// Oversized-document guard (UI responsibility, not the engine's).
	doc := src.Document()
	if count := doc.ElementCount(); count > maxElements {
		return fmt.Errorf("page too large to index: %d elements (limit %d)", count, maxElements)
	}
	if size := doc.TextBytes(); size > maxTextBytes {
		return fmt.Errorf("page too large to index: %d bytes of text (limit %d)", size, maxTextBytes)
	}

	session := grep.NewSession(doc, src.Metadata().URL, src.Notifier(), 0)
	session.StartIndexing()
	defer session.StopIndexing()

	if flagInteractive {
		return tui.Run(session, src.Notifier(), filters, query)
	}

	execute := func() error {
		logger.Section("query")
		return executeQuery(session, src.Metadata(), query, filters)
	}
	if err := execute(); err != nil {
		return err
	}

	if flagWatch || flagPoll > 0 {
		return rerunOnChange(src.Notifier(), execute)
	}
	return nil
}

// executeQuery runs one query, enriches the displayed slice, and renders.
func executeQuery(session *grep.Session, meta core.PageMetadata, query string, filters []core.Category) error {
	results := session.Search(query, filters)
	logger.Debug("query %q matched %d lines", query, len(results))

	if len(results) > flagLimit {
		results = results[:flagLimit]
	}
	for i := range results {
		session.Enrich(&results[i])
	}

	report := &core.Report{
		Metadata: meta,
		Query:    query,
		Filters:  filters,
		Results:  results,
	}

	renderer := selectRenderer()
	if renderer == nil {
		printReport(report)
		return nil
	}

	data, err := renderer.Render(report)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}
	path, err := writer.Write(meta.URL, query, data, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	return nil
}

// rerunOnChange blocks until interrupted, re-running the query after each
// settled burst of document mutations. The extra delay past the engine's
// debounce lets the cache invalidate before the re-query.
func rerunOnChange(notifier core.ChangeNotifier, execute func() error) error {
	var timer *time.Timer
	unsubscribe := notifier.Subscribe(func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(700*time.Millisecond, func() {
			fmt.Fprintln(os.Stdout, "\n— page changed, re-running —")
			if err := execute(); err != nil {
				fmt.Fprintf(os.Stderr, "re-run: %v\n", err)
			}
		})
	})
	defer unsubscribe()

	fmt.Fprintln(os.Stdout, "\nWatching for changes (Ctrl+C to stop)...")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}

// printReport writes plain terminal output for the default (no format
// flag) mode.
func printReport(report *core.Report) {
	if len(report.Results) == 0 {
		fmt.Fprintf(os.Stdout, "no results for %q in %s\n", report.Query, report.Metadata.URL)
		return
	}
	fmt.Fprintf(os.Stdout, "%d results for %q in %s\n\n", len(report.Results), report.Query, report.Metadata.URL)
	for i, res := range report.Results {
		fmt.Fprintf(os.Stdout, "%2d. [%s] %s  (score %d, line %d)\n", i+1, res.Tag, res.Text, res.Score, res.LineNumber)
		if res.Heading != "" {
			fmt.Fprintf(os.Stdout, "    under: %s\n", res.Heading)
		}
		if res.Href != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", res.Href)
		}
		for _, line := range res.DOMContext {
			fmt.Fprintf(os.Stdout, "    | %s\n", line)
		}
	}
}

// openSource loads the target as a URL or a local file, honoring --watch
// and --poll.
func openSource(ctx context.Context, target string) (*source.Source, error) {
	if isURL(target) {
		fetcher := fetch.New()
		if flagPoll > 0 {
			return source.PollURL(ctx, target, fetcher, flagPoll)
		}
		return source.FetchURL(ctx, target, fetcher)
	}
	if flagWatch {
		return source.WatchFile(target)
	}
	return source.OpenFile(target)
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// activeFilters returns the selected categories in flag-declaration order.
func activeFilters() []core.Category {
	var filters []core.Category
	if flagCode {
		filters = append(filters, core.CategoryCode)
	}
	if flagHeadings {
		filters = append(filters, core.CategoryHeadings)
	}
	if flagLinks {
		filters = append(filters, core.CategoryLinks)
	}
	if flagImages {
		filters = append(filters, core.CategoryImages)
	}
	return filters
}

// validateFlags checks mode and format flag combinations.
func validateFlags(query string) error {
	formatCount := 0
	if flagJSON {
		formatCount++
	}
	if flagMarkdown {
		formatCount++
	}
	if flagPDF {
		formatCount++
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}

	if flagInteractive {
		if formatCount > 0 {
			return fmt.Errorf("--interactive cannot be combined with a report format")
		}
		if flagWatch {
			return fmt.Errorf("--interactive already follows changes; drop --watch")
		}
	} else if query == "" {
		return fmt.Errorf("a query is required unless --interactive is set")
	}

	if flagWatch && flagPoll > 0 {
		return fmt.Errorf("--watch is for local files and --poll for URLs; use one")
	}
	if flagLimit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}
	return nil
}

// selectRenderer creates the Renderer for the chosen format, or nil for
// plain terminal output.
func selectRenderer() core.Renderer {
	switch {
	case flagMarkdown:
		return render.NewMarkdownRenderer()
	case flagJSON:
		return render.NewJSONRenderer()
	case flagPDF:
		return render.NewPDFRenderer()
	default:
		return nil
	}
}
