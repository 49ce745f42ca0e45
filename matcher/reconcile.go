package matcher

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/csmith/albumfinder/model"
	"golang.org/x/sync/errgroup"
)

// ReconcileOptions controls which albums Reconcile considers and how
type ReconcileOptions struct {
	// Blacklist excludes specific albums. May be nil.
	Blacklist *Blacklist
	// Filters excludes albums by their release classification.
	Filters FilterConfig
	// Workers is the number of albums matched concurrently. Defaults to GOMAXPROCS.
	Workers int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Exclusion is an album that was dropped because of its release type
type Exclusion struct {
	Album   model.Album
	Reasons []string
}

// Report splits a listening history into albums that have been rated and
// albums that haven't. All slices keep the order of the listening history.
type Report struct {
	Matched     []Result
	Unmatched   []Result
	Blacklisted []model.Album
	Excluded    []Exclusion
}

// Considered returns the number of albums that were matched against the catalog
func (r *Report) Considered() int {
	return len(r.Matched) + len(r.Unmatched)
}

// MatchRate returns the percentage of considered albums that were matched
func (r *Report) MatchRate() float64 {
	if r.Considered() == 0 {
		return 0
	}
	return 100 * float64(len(r.Matched)) / float64(r.Considered())
}

// Reconcile drops blacklisted and filtered albums from the listening history,
// then looks for each remaining album in the catalog.
func (e *Engine) Reconcile(ctx context.Context, albums []model.Album, catalog []model.RatedAlbum, opts ReconcileOptions) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	report := &Report{
		Matched:     make([]Result, 0),
		Unmatched:   make([]Result, 0),
		Blacklisted: make([]model.Album, 0),
		Excluded:    make([]Exclusion, 0),
	}

	var queries []model.Album
	for _, album := range albums {
		if opts.Blacklist.Contains(album) {
			report.Blacklisted = append(report.Blacklisted, album)
			continue
		}

		if reasons := ExclusionReasons(album, opts.Filters); len(reasons) > 0 {
			report.Excluded = append(report.Excluded, Exclusion{Album: album, Reasons: reasons})
			continue
		}

		queries = append(queries, album)
	}

	refs := prepare(catalog)
	results := make([]Result, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.find(queries[i], refs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, result := range results {
		if result.Matched() {
			report.Matched = append(report.Matched, result)
		} else {
			report.Unmatched = append(report.Unmatched, result)
		}
	}

	logger.Debug(
		"Reconciled listening history",
		"albums", len(albums),
		"catalog", len(catalog),
		"blacklisted", len(report.Blacklisted),
		"excluded", len(report.Excluded),
		"matched", len(report.Matched),
		"unmatched", len(report.Unmatched),
	)

	return report, nil
}
