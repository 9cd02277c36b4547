// Command policyscout locates the privacy policy for a website and prints
// the discovered page text or a machine-readable summary.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"policyscout"
	"policyscout/discover"
	"policyscout/goquery"
	pshttp "policyscout/http"
	"policyscout/lru"
	"policyscout/rod"
	pslog "policyscout/slog"
	"policyscout/trafilatura"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Timeout        time.Duration `short:"t" default:"20s" help:"Overall discovery deadline"`
	RequestTimeout time.Duration `default:"3s" help:"Per-request fetch timeout"`
	Concurrency    int           `short:"c" default:"8" help:"Concurrent fetch limit"`
	Render         bool          `help:"Enable the headless-browser fallback for JavaScript-gated sites"`
	RenderDomains  []string      `help:"Domains eligible for the render fallback (default: major social platforms)"`
	JSON           bool          `help:"Print the result as JSON instead of the policy text"`
	Verbose        bool          `short:"v" help:"Enable debug logging"`
	URL            string        `arg:"" required:"" help:"Website root URL to search"`
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("policyscout"),
		kong.Description("Find and retrieve a website's privacy policy"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle no arguments
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))

	// Wire dependencies: trafilatura extracts page text, with a CSS-selector
	// pass as its fallback for pages its heuristics reject.
	extractor := trafilatura.NewExtractor(goquery.NewExtractor())

	fetcher := pslog.NewLoggingFetcher(pshttp.NewFetcher(extractor), logger)
	defer fetcher.Close()

	generator := pslog.NewLoggingGenerator(discover.NewGenerator(
		discover.WithHomepageLinks(goquery.NewHomepageLinkSource(nil, pshttp.DefaultUserAgent)),
		discover.WithSitemapHints(pshttp.NewSitemapSource(nil)),
		discover.WithGeneratorLogger(logger),
	), logger)

	cache, err := lru.NewCache(lru.DefaultCapacity)
	if err != nil {
		return err
	}

	schedOpts := []discover.SchedulerOption{
		discover.WithCache(cache),
		discover.WithLimiter(discover.NewHostLimiter(discover.DefaultHostRPS)),
		discover.WithLogger(logger),
	}
	if len(cli.RenderDomains) > 0 {
		schedOpts = append(schedOpts, discover.WithRenderAllowList(cli.RenderDomains))
	}
	if cli.Render {
		renderer := pslog.NewLoggingFetcher(rod.NewFetcher(extractor), logger)
		defer renderer.Close()
		schedOpts = append(schedOpts, discover.WithRenderer(renderer))
	}

	scheduler := discover.NewScheduler(generator, fetcher, discover.NewScorer(), schedOpts...)
	discoverer := pslog.NewLoggingDiscoverer(scheduler, logger)

	result, err := discoverer.Discover(ctx, cli.URL, policyscout.SearchBudget{
		GlobalTimeout:     cli.Timeout,
		PerRequestTimeout: cli.RequestTimeout,
		MaxConcurrency:    cli.Concurrency,
	})
	if err != nil {
		return err
	}

	if cli.JSON {
		return writeJSON(stdout, result)
	}
	return writeText(stdout, result)
}
