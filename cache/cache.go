// Package cache stores JSON documents on disk, keyed by name, along with the
// time they were written.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrMiss is returned by Load when nothing has been stored under a key
var ErrMiss = errors.New("not in cache")

// Store is a directory of cached documents. A Store with an empty directory
// caches nothing: loads always miss and saves are discarded.
type Store struct {
	dir string
	now func() time.Time
}

type envelope struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New creates a Store that keeps its files in dir.
func New(dir string) *Store {
	return &Store{
		dir: dir,
		now: time.Now,
	}
}

// Load decodes the document stored under key into v, and returns the time
// it was saved. It returns ErrMiss if there is no such document.
func (s *Store) Load(key string, v any) (time.Time, error) {
	if s == nil || s.dir == "" {
		return time.Time{}, ErrMiss
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, ErrMiss
	} else if err != nil {
		return time.Time{}, fmt.Errorf("read cache file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return time.Time{}, fmt.Errorf("corrupt cache file %s: %w", key, err)
	}

	if len(env.Data) == 0 {
		return time.Time{}, fmt.Errorf("corrupt cache file %s: no data", key)
	}

	if err := json.Unmarshal(env.Data, v); err != nil {
		return time.Time{}, fmt.Errorf("corrupt cache file %s: %w", key, err)
	}

	return env.Timestamp, nil
}

// Save stores v under key, replacing anything already there.
func (s *Store) Save(key string, v any) error {
	if s == nil || s.dir == "" {
		return nil
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache data: %w", err)
	}

	data, err := json.MarshalIndent(envelope{Timestamp: s.now(), Data: payload}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache file: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	// Write atomically via temp file
	target := s.path(key)
	tmpPath := target + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

var unsafeKeyChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\x00", "_",
)

// maxNameLength is the longest name a key can map to: the 255 byte file name
// limit of most filesystems, less the ".json.tmp" suffix used while saving.
const maxNameLength = 255 - len(".json.tmp")

func (s *Store) path(key string) string {
	name := unsafeKeyChars.Replace(key)
	if name == "" || name == "." || name == ".." {
		name = "_" + name
	}
	return filepath.Join(s.dir, shorten(name)+".json")
}

// shorten replaces the tail of names that would be too long for a file name
// with a hash of the whole name, keeping distinct keys distinct.
func shorten(name string) string {
	if len(name) <= maxNameLength {
		return name
	}

	sum := sha256.Sum256([]byte(name))
	suffix := "_" + hex.EncodeToString(sum[:])

	prefix := name[:maxNameLength-len(suffix)]
	for len(prefix) > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix)
		if r != utf8.RuneError || size > 1 {
			break
		}
		prefix = prefix[:len(prefix)-size]
	}
	return prefix + suffix
}
