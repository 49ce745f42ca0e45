package matcher

import (
	"errors"
	"fmt"
	"math"

	"github.com/csmith/albumfinder/model"
)

// Default acceptance thresholds for artist and title similarity
const (
	DefaultArtistThreshold = 85
	DefaultTitleThreshold  = 85
)

const (
	artistWeight = 0.6
	titleWeight  = 0.4

	// An artist score at or above strongArtistScore only needs a title score of
	// strongArtistTitleMinimum, which lets live and alternate-mix releases through.
	strongArtistScore        = 95
	strongArtistTitleMinimum = 60

	// Below the artist threshold no title score is good enough
	unreachableTitleMinimum = 100
)

// ErrInvalidThreshold is returned when a threshold is outside of 0-100.
var ErrInvalidThreshold = errors.New("threshold must be between 0 and 100")

// Candidate is a reference album along with how well it scored against a query album
type Candidate struct {
	Reference     model.RatedAlbum
	ArtistScore   float64
	TitleScore    float64
	CombinedScore float64
}

// Result is the outcome of searching for a query album in a rated catalog
type Result struct {
	Query model.Album

	// Match is the accepted candidate, or nil if no candidate was accepted
	Match *Candidate

	// Best is the highest scoring candidate that was seen, whether or not it
	// was accepted. It is nil if no candidate could be compared at all.
	Best *Candidate
}

// Matched reports whether a candidate was accepted
func (r Result) Matched() bool {
	return r.Match != nil
}

// Engine scores query albums against a rated catalog
type Engine struct {
	metric          Metric
	artistThreshold float64
	titleThreshold  float64
}

// Option configures an Engine
type Option func(*Engine)

// WithMetric sets the metric used to compare strings. Thresholds are tuned for
// the default Levenshtein metric, and may need adjusting for others.
func WithMetric(metric Metric) Option {
	return func(e *Engine) {
		e.metric = metric
	}
}

// WithThresholds sets the minimum artist and title scores a candidate needs
func WithThresholds(artist, title float64) Option {
	return func(e *Engine) {
		e.artistThreshold = artist
		e.titleThreshold = title
	}
}

// NewEngine creates an Engine using the default metric and thresholds,
// modified by any given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		metric:          Levenshtein,
		artistThreshold: DefaultArtistThreshold,
		titleThreshold:  DefaultTitleThreshold,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.metric == nil {
		return nil, errors.New("metric must not be nil")
	}

	if err := checkThreshold("artist", e.artistThreshold); err != nil {
		return nil, err
	}

	if err := checkThreshold("title", e.titleThreshold); err != nil {
		return nil, err
	}

	return e, nil
}

func checkThreshold(name string, value float64) error {
	if math.IsNaN(value) || value < 0 || value > 100 {
		return fmt.Errorf("invalid %s threshold %v: %w", name, value, ErrInvalidThreshold)
	}
	return nil
}

// reference is a catalog entry with its fields already normalized
type reference struct {
	album     *model.RatedAlbum
	artist    string
	localized string
	title     string
}

func prepare(catalog []model.RatedAlbum) []reference {
	refs := make([]reference, 0, len(catalog))
	for i := range catalog {
		refs = append(refs, reference{
			album:     &catalog[i],
			artist:    NormalizeArtist(catalog[i].Artist),
			localized: NormalizeArtist(catalog[i].ArtistLocalized),
			title:     NormalizeTitle(catalog[i].Title),
		})
	}
	return refs
}

// score compares a normalized query artist and title against a reference.
// It returns false if the reference has nothing usable to compare against.
func (e *Engine) score(artist, title string, ref reference) (Candidate, bool) {
	if ref.artist == "" || ref.title == "" {
		return Candidate{}, false
	}

	artistScore := e.metric.ArtistSimilarity(artist, ref.artist)
	if ref.localized != "" {
		artistScore = max(artistScore, e.metric.ArtistSimilarity(artist, ref.localized))
	}

	titleScore := e.metric(title, ref.title)

	return Candidate{
		Reference:     *ref.album,
		ArtistScore:   artistScore,
		TitleScore:    titleScore,
		CombinedScore: artistScore*artistWeight + titleScore*titleWeight,
	}, true
}

// titleMinimum returns the title score required for a candidate with the given artist score
func (e *Engine) titleMinimum(artistScore float64) float64 {
	switch {
	case artistScore >= strongArtistScore:
		return strongArtistTitleMinimum
	case artistScore >= e.artistThreshold:
		return e.titleThreshold
	default:
		return unreachableTitleMinimum
	}
}

// accepts applies the tiered thresholds to a pair of scores
func (e *Engine) accepts(artistScore, titleScore float64) bool {
	return artistScore >= e.artistThreshold && titleScore >= e.titleMinimum(artistScore)
}
