package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/csmith/albumfinder/cache"
	"github.com/csmith/albumfinder/model"
	"golang.org/x/time/rate"
)

const (
	musicBrainzBaseURL   = "https://musicbrainz.org/ws/2"
	musicBrainzUserAgent = "albumfinder/1.0 ( https://github.com/csmith/albumfinder )"
)

// Confidence in a classification, depending on how the release group was found
const (
	confidenceByID           = 1.0
	confidenceSearchFallback = 0.7
	confidenceSearch         = 0.8
)

// ErrNotFound is returned when MusicBrainz has no entity with the requested ID
var ErrNotFound = errors.New("not found")

// ReleaseGroup is a MusicBrainz release group
type ReleaseGroup struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	PrimaryType    string   `json:"primary-type"`
	SecondaryTypes []string `json:"secondary-types"`
	ArtistCredit   []struct {
		Name string `json:"name"`
	} `json:"artist-credit"`
}

type releaseGroupSearchResponse struct {
	Count         int            `json:"count"`
	ReleaseGroups []ReleaseGroup `json:"release-groups"`
}

// MusicBrainz looks up release types from MusicBrainz. Requests are limited
// to one per second, and responses are cached.
type MusicBrainz struct {
	client  *http.Client
	limiter *rate.Limiter
	cache   *cache.Store
	baseURL string
}

// NewMusicBrainz creates a MusicBrainz client using the public API
func NewMusicBrainz(store *cache.Store) *MusicBrainz {
	return NewMusicBrainzWithBaseURL(store, musicBrainzBaseURL)
}

// NewMusicBrainzWithBaseURL creates a MusicBrainz client using a custom base URL
func NewMusicBrainzWithBaseURL(store *cache.Store, baseURL string) *MusicBrainz {
	if baseURL == "" {
		baseURL = musicBrainzBaseURL
	}

	return &MusicBrainz{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		cache:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ReleaseGroup fetches a release group by its MBID
func (m *MusicBrainz) ReleaseGroup(ctx context.Context, mbid string) (*ReleaseGroup, error) {
	mbid = strings.TrimSpace(mbid)
	if mbid == "" {
		return nil, ErrNotFound
	}

	key := "rg_" + mbid
	var cached ReleaseGroup
	if _, err := m.cache.Load(key, &cached); err == nil {
		return &cached, nil
	}

	group := &ReleaseGroup{}
	reqURL := m.baseURL + "/release-group/" + url.PathEscape(mbid) + "?" + url.Values{"fmt": {"json"}}.Encode()
	if err := m.get(ctx, reqURL, group); err != nil {
		return nil, err
	}

	m.save(key, group)
	return group, nil
}

// SearchReleaseGroups searches for release groups by artist and album title.
// Results with exactly the same title are returned first if there are any,
// then results where one title contains the other, then anything else.
func (m *MusicBrainz) SearchReleaseGroups(ctx context.Context, artist, album string) ([]ReleaseGroup, error) {
	if artist == "" || album == "" {
		return nil, nil
	}

	key := fmt.Sprintf("search_%s_%s", artist, album)
	var groups []ReleaseGroup
	if _, err := m.cache.Load(key, &groups); err != nil {
		params := url.Values{
			"query": {fmt.Sprintf(`releasegroup:"%s" AND artist:"%s"`, escapeQuery(album), escapeQuery(artist))},
			"limit": {"5"},
			"fmt":   {"json"},
		}

		var resp releaseGroupSearchResponse
		if err := m.get(ctx, m.baseURL+"/release-group?"+params.Encode(), &resp); err != nil {
			return nil, err
		}

		groups = resp.ReleaseGroups
		m.save(key, groups)
	}

	return preferTitle(groups, album), nil
}

// Classify finds the release type of an album, preferring a lookup by its
// external ID and falling back to a search. It returns nil if nothing was found.
func (m *MusicBrainz) Classify(ctx context.Context, album model.Album) (*model.ReleaseClassification, error) {
	var group *ReleaseGroup
	var confidence float64

	if mbid := strings.TrimSpace(album.ExternalID); mbid != "" {
		g, err := m.ReleaseGroup(ctx, mbid)
		if err == nil {
			group = g
			confidence = confidenceByID
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		} else {
			slog.Debug("MBID lookup failed, trying search", "mbid", mbid, "artist", album.Artist, "title", album.Title, "error", err)
			g, err := m.first(ctx, album)
			if err != nil {
				return nil, err
			}
			group = g
			confidence = confidenceSearchFallback
		}
	} else {
		g, err := m.first(ctx, album)
		if err != nil {
			return nil, err
		}
		group = g
		confidence = confidenceSearch
	}

	if group == nil {
		return nil, nil
	}

	return &model.ReleaseClassification{
		PrimaryType:    group.PrimaryType,
		SecondaryTypes: group.SecondaryTypes,
		Confidence:     confidence,
	}, nil
}

func (m *MusicBrainz) first(ctx context.Context, album model.Album) (*ReleaseGroup, error) {
	groups, err := m.SearchReleaseGroups(ctx, album.Artist, album.Title)
	if err != nil || len(groups) == 0 {
		return nil, err
	}
	return &groups[0], nil
}

// get executes a rate limited GET request and decodes the JSON response into v
func (m *MusicBrainz) get(ctx context.Context, reqURL string, v any) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", musicBrainzUserAgent)
	req.Header.Set("Accept", "application/json")

	slog.Debug("Requesting", "url", reqURL, "source", "musicbrainz")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("MusicBrainz API error: %s - %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1024*1024)).Decode(v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	return nil
}

func (m *MusicBrainz) save(key string, v any) {
	if err := m.cache.Save(key, v); err != nil {
		slog.Warn("Could not save to cache", "key", key, "error", err, "source", "musicbrainz")
	}
}

func preferTitle(groups []ReleaseGroup, album string) []ReleaseGroup {
	target := strings.ToLower(strings.TrimSpace(album))

	var exact, partial []ReleaseGroup
	for _, group := range groups {
		title := strings.ToLower(strings.TrimSpace(group.Title))
		if title == target {
			exact = append(exact, group)
		} else if strings.Contains(title, target) || strings.Contains(target, title) {
			partial = append(partial, group)
		}
	}

	switch {
	case len(exact) > 0:
		return exact
	case len(partial) > 0:
		return partial
	default:
		return groups
	}
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// escapeQuery escapes a value for use inside a quoted Lucene phrase
func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var _ model.Classifier = &MusicBrainz{}
