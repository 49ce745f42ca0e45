package matcher

import (
	"strings"

	"github.com/csmith/albumfinder/model"
)

// MinimumClassificationConfidence is the confidence a classification needs
// before it can cause an album to be excluded.
const MinimumClassificationConfidence = 0.7

// FilterConfig selects which kinds of release should be excluded
type FilterConfig struct {
	Singles      bool `toml:"singles"`
	EPs          bool `toml:"eps"`
	Compilations bool `toml:"compilations"`
	Live         bool `toml:"live"`
	Demos        bool `toml:"demos"`
	Mixtapes     bool `toml:"mixtapes"`
}

// Any reports whether any category is excluded
func (c FilterConfig) Any() bool {
	return c.Singles || c.EPs || c.Compilations || c.Live || c.Demos || c.Mixtapes
}

// Merge returns a config that excludes everything either config excludes
func (c FilterConfig) Merge(other FilterConfig) FilterConfig {
	return FilterConfig{
		Singles:      c.Singles || other.Singles,
		EPs:          c.EPs || other.EPs,
		Compilations: c.Compilations || other.Compilations,
		Live:         c.Live || other.Live,
		Demos:        c.Demos || other.Demos,
		Mixtapes:     c.Mixtapes || other.Mixtapes,
	}
}

// ShouldExclude reports whether the album's classification puts it in a
// category the config excludes. Albums without a classification, or with a
// low confidence one, are always kept.
func ShouldExclude(album model.Album, config FilterConfig) bool {
	return len(ExclusionReasons(album, config)) > 0
}

// ExclusionReasons returns each excluded category the album falls in, e.g.
// "single" or "live". It returns nil if the album should be kept.
func ExclusionReasons(album model.Album, config FilterConfig) []string {
	classification := album.Classification
	if classification == nil || classification.Confidence < MinimumClassificationConfidence {
		return nil
	}

	var reasons []string

	primary := strings.ToLower(strings.TrimSpace(classification.PrimaryType))
	if primary == "single" && config.Singles {
		reasons = append(reasons, "single")
	}
	if primary == "ep" && config.EPs {
		reasons = append(reasons, "ep")
	}

	secondary := []struct {
		enabled  bool
		reason   string
		keywords []string
	}{
		{config.Compilations, "compilation", []string{"compilation"}},
		{config.Live, "live", []string{"live"}},
		{config.Demos, "demo", []string{"demo"}},
		{config.Mixtapes, "mixtape", []string{"mixtape", "street"}},
	}

	for _, category := range secondary {
		if category.enabled && anySecondaryContains(classification.SecondaryTypes, category.keywords) {
			reasons = append(reasons, category.reason)
		}
	}

	return reasons
}

func anySecondaryContains(types []string, keywords []string) bool {
	for _, t := range types {
		lowered := strings.ToLower(t)
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				return true
			}
		}
	}
	return false
}
