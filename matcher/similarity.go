package matcher

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/hbollon/go-edlib"
)

// Metric scores how similar two strings are, from 0 (nothing in common) to
// 100 (identical). Empty strings carry no signal and always score 0.
type Metric func(a, b string) float64

// Levenshtein scores strings by their edit distance relative to the longer string.
func Levenshtein(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	distance := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(distance)/float64(longest))
}

// Indel scores strings by their longest common subsequence, i.e. an edit
// distance where substitutions count as an insertion plus a deletion.
func Indel(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	return 100 * float64(2*edlib.LCS(a, b)) / float64(total)
}

// MetricByName returns the metric with the given name.
func MetricByName(name string) (Metric, error) {
	switch strings.ToLower(name) {
	case "", "levenshtein":
		return Levenshtein, nil
	case "indel":
		return Indel, nil
	default:
		return nil, fmt.Errorf("unknown similarity metric: %s", name)
	}
}

// StringSimilarity scores two normalized strings with the default metric
func StringSimilarity(a, b string) float64 {
	return Levenshtein(a, b)
}

// containmentScore is awarded when one side's main artist appears within the other side
const containmentScore = 85

// Collaboration separators, in the order they're looked for
var collaborationSeparators = []string{
	" & ",
	" and ",
	" feat. ",
	" featuring ",
	" ft. ",
	" with ",
	" x ",
	" vs. ",
	" vs ",
	", ",
}

// MainArtist reduces a collaboration credit such as "A & B" or "A feat. B" to
// its first named artist. The first separator found (in a fixed order) wins.
// The result is lower case.
func MainArtist(artist string) string {
	lowered := strings.ToLower(artist)
	for _, sep := range collaborationSeparators {
		if idx := strings.Index(lowered, sep); idx != -1 {
			return strings.TrimSpace(lowered[:idx])
		}
	}
	return strings.TrimSpace(lowered)
}

// ArtistSimilarity scores two normalized artist names with the default metric.
// See Metric.ArtistSimilarity.
func ArtistSimilarity(query, reference string) float64 {
	return Metric(Levenshtein).ArtistSimilarity(query, reference)
}

// ArtistSimilarity scores two normalized artist names, allowing for
// collaboration credits. It returns the best of the direct score, the score of
// the two main artists, and a fixed containment score if either main artist
// appears within the other name.
func (m Metric) ArtistSimilarity(query, reference string) float64 {
	if query == "" || reference == "" {
		return 0
	}

	direct := m(query, reference)

	queryMain := MainArtist(query)
	referenceMain := MainArtist(reference)
	mainScore := m(queryMain, referenceMain)

	var contained float64
	if (queryMain != "" && strings.Contains(reference, queryMain)) ||
		(referenceMain != "" && strings.Contains(query, referenceMain)) {
		contained = containmentScore
	}

	return max(direct, mainScore, contained)
}
