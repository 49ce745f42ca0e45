package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/csmith/albumfinder/model"
	"gopkg.in/yaml.v3"
)

// LoadBlacklist reads a list of {artist, title} entries from a JSON or YAML
// file. A file that doesn't exist is treated as an empty blacklist.
func LoadBlacklist(path string) ([]model.BlacklistEntry, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No blacklist found", "path", path)
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var entries []model.BlacklistEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		err = json.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse blacklist %s: %w", path, err)
	}

	slog.Debug("Loaded blacklist", "path", path, "count", len(entries))
	return entries, nil
}
