package matcher

import "github.com/csmith/albumfinder/model"

var defaultEngine = &Engine{
	metric:          Levenshtein,
	artistThreshold: DefaultArtistThreshold,
	titleThreshold:  DefaultTitleThreshold,
}

// FindMatch searches the catalog for the query album using the default
// metric and thresholds. See Engine.FindMatch.
func FindMatch(query model.Album, catalog []model.RatedAlbum) Result {
	return defaultEngine.FindMatch(query, catalog)
}

// FindMatch compares the query album against every album in the catalog, in
// order, and returns the accepted match if there is one.
//
// Candidates are only tested for acceptance when their combined score beats
// every candidate before them. An earlier, higher scoring candidate that fails
// the thresholds therefore hides later candidates that would have passed, so
// the order of the catalog matters. A later candidate that fails does not undo
// an earlier acceptance.
func (e *Engine) FindMatch(query model.Album, catalog []model.RatedAlbum) Result {
	return e.find(query, prepare(catalog))
}

func (e *Engine) find(query model.Album, refs []reference) Result {
	result := Result{Query: query}

	artist := NormalizeArtist(query.Artist)
	title := NormalizeTitle(query.Title)
	if artist == "" || title == "" {
		return result
	}

	var bestScore float64
	for i := range refs {
		candidate, ok := e.score(artist, title, refs[i])
		if !ok || candidate.CombinedScore <= bestScore {
			continue
		}

		bestScore = candidate.CombinedScore
		result.Best = &candidate

		if e.accepts(candidate.ArtistScore, candidate.TitleScore) {
			result.Match = &candidate
		}
	}

	return result
}
