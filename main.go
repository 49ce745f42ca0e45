package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/csmith/albumfinder/cache"
	"github.com/csmith/albumfinder/matcher"
	"github.com/csmith/albumfinder/model"
	"github.com/csmith/albumfinder/report"
	"github.com/csmith/albumfinder/sources"
	"github.com/csmith/envflag/v2"
	"github.com/csmith/slogflags"
)

var (
	source = flag.String("source", "", "Source of listening history (lastfm, listenbrainz or subsonic)")
	limit  = flag.Int("limit", 1000, "Maximum number of albums to retrieve from the source. Zero retrieves everything.")

	lastfmKey      = flag.String("lastfm-key", "", "Last.fm API key")
	lastfmUsername = flag.String("lastfm-username", "", "Last.fm username")
	period         = flag.String("period", "overall", "Last.fm period to retrieve top albums for (overall, 7day, 1month, 3month, 6month, 12month)")

	listenbrainzToken    = flag.String("listenbrainz-token", "", "ListenBrainz token")
	listenbrainzUsername = flag.String("listenbrainz-username", "", "ListenBrainz username")

	subsonicServer   = flag.String("subsonic-server", "", "Subsonic server base address")
	subsonicUsername = flag.String("subsonic-username", "", "Subsonic username")
	subsonicPassword = flag.String("subsonic-password", "", "Subsonic password")

	rymCSV = flag.String("rym-csv", "", "Path to a RateYourMusic CSV export")

	blacklistPath       = flag.String("blacklist", "data/blacklist.json", "JSON or YAML file of albums to ignore")
	filtersPath         = flag.String("filters", "", "TOML file of release types to ignore")
	excludeSingles      = flag.Bool("exclude-singles", false, "Ignore singles")
	excludeEPs          = flag.Bool("exclude-eps", false, "Ignore EPs")
	excludeCompilations = flag.Bool("exclude-compilations", false, "Ignore compilations")
	excludeLive         = flag.Bool("exclude-live", false, "Ignore live albums")
	excludeDemos        = flag.Bool("exclude-demos", false, "Ignore demos")
	excludeMixtapes     = flag.Bool("exclude-mixtapes", false, "Ignore mixtapes and street albums")

	musicbrainz    = flag.Bool("musicbrainz", false, "Look up release types on MusicBrainz")
	musicbrainzURL = flag.String("musicbrainz-url", "", "MusicBrainz API base address")

	artistThreshold = flag.Float64("artist-threshold", matcher.DefaultArtistThreshold, "Minimum artist similarity (0-100) for a match")
	titleThreshold  = flag.Float64("title-threshold", matcher.DefaultTitleThreshold, "Minimum title similarity (0-100) for a match")
	metric          = flag.String("metric", "levenshtein", "String similarity metric (levenshtein or indel)")
	workers         = flag.Int("workers", 0, "Number of albums to match concurrently. Zero uses one per CPU.")

	cacheDir    = flag.String("cache-dir", "data", "Directory to cache listening history and MusicBrainz responses in. Empty disables caching.")
	refresh     = flag.Bool("refresh", false, "Ignore cached listening history")
	cacheMaxAge = flag.Duration("cache-max-age", 0, "How long cached listening history is used for. Zero uses it forever.")

	top         = flag.Int("top", report.DefaultTop, "Number of unrated albums to show. Negative shows all of them.")
	showMatched = flag.Bool("show-matched", false, "Also show albums that were matched to a rating")

	availableSources map[string]model.HistorySource
)

func main() {
	envflag.Parse()
	_ = slogflags.Logger(slogflags.WithSetDefault(true))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("Failed to find unrated albums", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	store := cache.New(*cacheDir)
	initialiseSources(store)

	src, err := selectedSource()
	if err != nil {
		return fmt.Errorf("failed to get source: %w", err)
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	filters, err := selectedFilters()
	if err != nil {
		return err
	}

	if *rymCSV == "" {
		return fmt.Errorf("rym-csv must be specified")
	}

	catalog, err := sources.ReadRYM(*rymCSV)
	if err != nil {
		return fmt.Errorf("failed to read ratings: %w", err)
	}

	entries, err := sources.LoadBlacklist(*blacklistPath)
	if err != nil {
		return fmt.Errorf("failed to load blacklist: %w", err)
	}

	start := time.Now()
	albums, err := src.Albums(ctx)
	if err != nil {
		return fmt.Errorf("failed to get albums from %s: %w", *source, err)
	}
	slog.Info("Retrieved listening history", "source", *source, "albums", len(albums), "duration", time.Since(start))

	rep, err := engine.Reconcile(ctx, albums, catalog, matcher.ReconcileOptions{
		Blacklist: matcher.NewBlacklist(entries),
		Filters:   filters,
		Workers:   *workers,
	})
	if err != nil {
		return fmt.Errorf("failed to match albums: %w", err)
	}

	slog.Info(
		"Matched listening history against ratings",
		"rated_albums", len(catalog),
		"matched", len(rep.Matched),
		"unmatched", len(rep.Unmatched),
		"blacklisted", len(rep.Blacklisted),
		"excluded", len(rep.Excluded),
	)

	return report.Write(os.Stdout, rep, report.Options{
		Top:         *top,
		ShowMatched: *showMatched,
	})
}

func initialiseSources(store *cache.Store) {
	availableSources = make(map[string]model.HistorySource)

	if *lastfmKey != "" && *lastfmUsername != "" {
		availableSources["lastfm"] = wrapSource(store, "lastfm", *lastfmUsername, *period, &sources.Lastfm{
			APIKey:   *lastfmKey,
			Username: *lastfmUsername,
			Period:   *period,
			Limit:    *limit,
		})
	}

	if *listenbrainzUsername != "" {
		availableSources["listenbrainz"] = wrapSource(store, "listenbrainz", *listenbrainzUsername, "all_time", &sources.ListenBrainz{
			Token:     *listenbrainzToken,
			Username:  *listenbrainzUsername,
			Limit:     *limit,
			PageDelay: time.Second,
		})
	}

	if *subsonicServer != "" {
		availableSources["subsonic"] = wrapSource(store, "subsonic", *subsonicUsername, "frequent", &sources.Subsonic{
			BaseURL:    *subsonicServer,
			Username:   *subsonicUsername,
			Password:   *subsonicPassword,
			ClientName: "albumfinder",
			Limit:      *limit,
		})
	}
}

// wrapSource adds release type lookups if they're enabled, and caches the result
func wrapSource(store *cache.Store, name, username, period string, src model.HistorySource) model.HistorySource {
	if *musicbrainz {
		src = &sources.Enriched{
			Source:     src,
			Classifier: sources.NewMusicBrainzWithBaseURL(store, *musicbrainzURL),
		}
	}

	return &sources.Cached{
		Source:  src,
		Store:   store,
		Key:     sources.CacheKey(name, username, period, *limit, *musicbrainz),
		MaxAge:  *cacheMaxAge,
		Refresh: *refresh,
	}
}

func selectedSource() (model.HistorySource, error) {
	if *source == "" {
		return nil, fmt.Errorf("source must be specified")
	}

	src, ok := availableSources[*source]
	if !ok {
		return nil, fmt.Errorf("source not configured or invalid: %s", *source)
	}

	return src, nil
}

func newEngine() (*matcher.Engine, error) {
	m, err := matcher.MetricByName(*metric)
	if err != nil {
		return nil, err
	}

	engine, err := matcher.NewEngine(
		matcher.WithMetric(m),
		matcher.WithThresholds(*artistThreshold, *titleThreshold),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}

	return engine, nil
}

func selectedFilters() (matcher.FilterConfig, error) {
	filters, err := sources.LoadFilters(*filtersPath)
	if err != nil {
		return filters, err
	}

	filters = filters.Merge(matcher.FilterConfig{
		Singles:      *excludeSingles,
		EPs:          *excludeEPs,
		Compilations: *excludeCompilations,
		Live:         *excludeLive,
		Demos:        *excludeDemos,
		Mixtapes:     *excludeMixtapes,
	})

	if filters.Any() && !*musicbrainz {
		slog.Warn("Release type filters only apply to albums with a release type; enable -musicbrainz to look them up")
	}

	return filters, nil
}
