package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/csmith/albumfinder/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFilters(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name     string
		path     string
		expected matcher.FilterConfig
		wantErr  bool
	}{
		{
			name:     "no path",
			path:     "",
			expected: matcher.FilterConfig{},
		},
		{
			name:     "some categories",
			path:     write("some.toml", "singles = true\nlive = true\nmixtapes = false\n"),
			expected: matcher.FilterConfig{Singles: true, Live: true},
		},
		{
			name:     "every category",
			path:     write("all.toml", "singles = true\neps = true\ncompilations = true\nlive = true\ndemos = true\nmixtapes = true\n"),
			expected: matcher.FilterConfig{Singles: true, EPs: true, Compilations: true, Live: true, Demos: true, Mixtapes: true},
		},
		{
			name:    "unknown category",
			path:    write("unknown.toml", "bootlegs = true\n"),
			wantErr: true,
		},
		{
			name:    "not toml",
			path:    write("broken.toml", "singles = \n"),
			wantErr: true,
		},
		{
			name:    "missing file",
			path:    filepath.Join(dir, "missing.toml"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadFilters(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, config)
		})
	}
}
