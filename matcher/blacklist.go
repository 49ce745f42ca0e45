package matcher

import "github.com/csmith/albumfinder/model"

type blacklistKey struct {
	artist string
	title  string
}

// IsBlacklisted reports whether the album's normalized artist and title both
// exactly equal those of an entry in the blacklist. Albums or entries that
// normalize to an empty artist or title never match.
func IsBlacklisted(album model.Album, blacklist []model.BlacklistEntry) bool {
	key, ok := albumKey(album.Artist, album.Title)
	if !ok {
		return false
	}

	for _, entry := range blacklist {
		if entryKey, ok := albumKey(entry.Artist, entry.Title); ok && entryKey == key {
			return true
		}
	}

	return false
}

// Blacklist is a set of blacklist entries, normalized up front for repeated lookups
type Blacklist struct {
	keys map[blacklistKey]struct{}
}

// NewBlacklist normalizes the given entries into a Blacklist
func NewBlacklist(entries []model.BlacklistEntry) *Blacklist {
	b := &Blacklist{keys: make(map[blacklistKey]struct{}, len(entries))}
	for _, entry := range entries {
		if key, ok := albumKey(entry.Artist, entry.Title); ok {
			b.keys[key] = struct{}{}
		}
	}
	return b
}

// Contains behaves like IsBlacklisted against the entries the Blacklist was made from
func (b *Blacklist) Contains(album model.Album) bool {
	if b == nil {
		return false
	}

	key, ok := albumKey(album.Artist, album.Title)
	if !ok {
		return false
	}

	_, found := b.keys[key]
	return found
}

// Len returns the number of usable entries
func (b *Blacklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

func albumKey(artist, title string) (blacklistKey, bool) {
	key := blacklistKey{
		artist: NormalizeArtist(artist),
		title:  NormalizeTitle(title),
	}
	return key, key.artist != "" && key.title != ""
}
