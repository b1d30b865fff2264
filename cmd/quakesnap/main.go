// Command quakesnap fetches one USGS feed, prints its summary and writes the
// dashboard as a standalone web page. Environment variables supply the
// defaults (see internal/config); flags override them.
//
// Usage:
//
//	go run ./cmd/quakesnap --interval week --level 2.5 --min-mag 3 -o quakes.html
//	go run ./cmd/quakesnap --days 3 --layer "Satellite View"
//	go run ./cmd/quakesnap --start 2024-04-01 --end 2024-04-08 --boundaries=false
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/couchcryptid/quakewatch/internal/adapter/usgs"
	"github.com/couchcryptid/quakewatch/internal/boundary"
	"github.com/couchcryptid/quakewatch/internal/config"
	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/observability"
	"github.com/couchcryptid/quakewatch/internal/render/charts"
	"github.com/couchcryptid/quakewatch/internal/render/htmlpage"
	"github.com/couchcryptid/quakewatch/internal/tilelayer"
)

const barWidth = 48

type options struct {
	interval   string
	level      string
	days       int
	start      string
	end        string
	minMag     float64
	layer      string
	boundaries bool
	theme      string
	out        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "quakesnap:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fs := pflag.NewFlagSet("quakesnap", pflag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.interval, "interval", string(cfg.Selector.Interval), "summary feed window: hour, day, week or month")
	fs.StringVar(&opts.level, "level", string(cfg.Selector.Level), "summary feed level: all, 1.0, 2.5, 4.5 or significant")
	fs.IntVar(&opts.days, "days", 0, fmt.Sprintf("query the last N days (%d-%d) instead of a summary feed", domain.MinDays, domain.MaxDays))
	fs.StringVar(&opts.start, "start", "", "query start date, YYYY-MM-DD")
	fs.StringVar(&opts.end, "end", "", "query end date, YYYY-MM-DD")
	fs.Float64Var(&opts.minMag, "min-mag", 0, fmt.Sprintf("hide markers below this magnitude (%v-%v in steps of %v)", domain.MinThreshold, domain.MaxThreshold, domain.ThresholdStep))
	fs.StringVar(&opts.layer, "layer", cfg.TileLayer, "tile layer name")
	fs.BoolVar(&opts.boundaries, "boundaries", cfg.ShowBoundaries, "draw tectonic plate boundaries")
	fs.StringVar(&opts.theme, "theme", cfg.Theme, "page theme: dark or light")
	fs.StringVarP(&opts.out, "out", "o", "quakewatch.html", "output HTML file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sel, err := selectorFromFlags(fs, opts, cfg.Selector)
	if err != nil {
		return err
	}
	if err := domain.ValidateThreshold(opts.minMag); err != nil {
		return fmt.Errorf("invalid --min-mag: %w", err)
	}
	if opts.theme != "dark" && opts.theme != "light" {
		return fmt.Errorf("invalid --theme %q: must be dark or light", opts.theme)
	}

	catalog, err := tilelayer.Load(cfg.TileLayersFile)
	if err != nil {
		return err
	}
	layer := catalog.First()
	if opts.layer != "" {
		l, ok := catalog.Lookup(opts.layer)
		if !ok {
			return fmt.Errorf("unknown --layer %q, available: %s", opts.layer, strings.Join(catalog.Names(), ", "))
		}
		layer = l
	}

	var overlay *boundary.Overlay
	if opts.boundaries {
		if overlay, err = boundary.Load(cfg.BoundariesFile); err != nil {
			return err
		}
	}

	logger := observability.NewLogger(cfg)
	client := usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, cfg.USGSQueryLimit, cfg.USGSMinRequestInterval,
		observability.NewMetricsWith(prometheus.NewRegistry()), logger)

	logger.Info("fetching feed", "selector", sel.Key())
	coll, err := client.Fetch(ctx, sel)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", sel, err)
	}

	threshold := opts.minMag
	printSummary(stdout, sel, coll, threshold)

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	err = htmlpage.Render(f, htmlpage.Page{
		Selector:    sel,
		Collection:  coll,
		Layer:       layer,
		Overlay:     overlay,
		Threshold:   threshold,
		Dark:        opts.theme == "dark",
		GeneratedAt: time.Now().UTC(),
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}

	fmt.Fprintf(stdout, "\nwrote %s\n", opts.out)
	return nil
}

// selectorFromFlags starts from the configured selector and applies the
// search flags. A day count and a date range are mutually exclusive.
func selectorFromFlags(fs *pflag.FlagSet, opts options, base domain.Selector) (domain.Selector, error) {
	interval, err := domain.ParseInterval(opts.interval)
	if err != nil {
		return domain.Selector{}, fmt.Errorf("invalid --interval: %w", err)
	}
	level, err := domain.ParseLevel(opts.level)
	if err != nil {
		return domain.Selector{}, fmt.Errorf("invalid --level: %w", err)
	}
	sel := base
	sel.Interval = interval
	sel.Level = level

	daysSet := fs.Changed("days")
	rangeSet := fs.Changed("start") || fs.Changed("end")
	switch {
	case daysSet && rangeSet:
		return domain.Selector{}, errors.New("--days cannot be combined with --start or --end")
	case daysSet:
		sel = domain.Selector{Mode: domain.ModeDays, Days: opts.days}
	case rangeSet:
		sel = domain.Selector{Mode: domain.ModeRange, Start: opts.start, End: opts.end}
	default:
		sel.Mode = domain.ModeInterval
	}

	if err := sel.Validate(); err != nil {
		return domain.Selector{}, err
	}
	return sel, nil
}

func printSummary(w io.Writer, sel domain.Selector, coll domain.Collection, threshold float64) {
	stats := domain.ComputeStats(coll.Features)
	shown := len(domain.FilterByMagnitude(coll.Features, threshold))

	title := coll.Title
	if title == "" {
		title = "Earthquakes: " + sel.String()
	}
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "%-9s %s\n", "Total", humanize.Comma(int64(stats.Count)))
	fmt.Fprintf(w, "%-9s %s\n", "Max", stats.MaxLabel())
	fmt.Fprintf(w, "%-9s %s\n", "Average", stats.AverageLabel())
	fmt.Fprintf(w, "%-9s %s (M ≥ %s)\n", "On map", humanize.Comma(int64(shown)), domain.FormatMagnitude(threshold))

	if len(stats.Top) > 0 {
		fmt.Fprintln(w, "\nStrongest")
		for i, f := range stats.Top {
			fmt.Fprintf(w, "%d. M %-4s %s (%s)\n", i+1, domain.MagnitudeLabel(f), f.Place, humanize.Time(f.Time))
		}
	}

	fmt.Fprintln(w, "\nMagnitude distribution")
	fmt.Fprintln(w, charts.Bars(domain.Bucketize(coll.Features), barWidth))
}
