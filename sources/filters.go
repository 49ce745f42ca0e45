package sources

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/csmith/albumfinder/matcher"
	"github.com/pelletier/go-toml/v2"
)

// LoadFilters reads release type filters from a TOML file such as:
//
//	singles = true
//	live = true
//
// An empty path excludes nothing.
func LoadFilters(path string) (matcher.FilterConfig, error) {
	var config matcher.FilterConfig
	if path == "" {
		return config, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return config, fmt.Errorf("open filters: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		return matcher.FilterConfig{}, fmt.Errorf("parse filters %s: %w", path, err)
	}

	slog.Debug("Loaded release type filters", "path", path, "filters", config)
	return config, nil
}
