package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/csmith/albumfinder/cache"
	"github.com/csmith/albumfinder/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const discoverySearch = `{"count": 3, "release-groups": [
	{"id": "rg-live", "title": "Discovery Live", "primary-type": "Album", "secondary-types": ["Live"]},
	{"id": "rg-studio", "title": "Discovery", "primary-type": "Album"},
	{"id": "rg-other", "title": "Homework", "primary-type": "Album"}
]}`

type fakeMusicBrainz struct {
	lookups  atomic.Int32
	searches atomic.Int32
	query    atomic.Value
}

func (f *fakeMusicBrainz) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("User-Agent"), "albumfinder/") {
		http.Error(w, "missing user agent", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/release-group/rg-ep":
		f.lookups.Add(1)
		_, _ = w.Write([]byte(`{"id": "rg-ep", "title": "Mini", "primary-type": "EP", "secondary-types": []}`))
	case strings.HasPrefix(r.URL.Path, "/release-group/"):
		f.lookups.Add(1)
		http.Error(w, `{"error": "Not Found"}`, http.StatusNotFound)
	case r.URL.Path == "/release-group":
		f.searches.Add(1)
		f.query.Store(r.URL.Query().Get("query"))
		if strings.Contains(r.URL.Query().Get("query"), "Discovery") {
			_, _ = w.Write([]byte(discoverySearch))
		} else {
			_, _ = w.Write([]byte(`{"count": 0, "release-groups": []}`))
		}
	default:
		http.NotFound(w, r)
	}
}

func newTestMusicBrainz(t *testing.T) (*MusicBrainz, *fakeMusicBrainz) {
	fake := &fakeMusicBrainz{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	mb := NewMusicBrainzWithBaseURL(cache.New(t.TempDir()), server.URL+"/")
	mb.limiter = rate.NewLimiter(rate.Inf, 1)
	return mb, fake
}

func TestMusicBrainz_ReleaseGroup(t *testing.T) {
	mb, fake := newTestMusicBrainz(t)

	group, err := mb.ReleaseGroup(context.Background(), "rg-ep")
	require.NoError(t, err)
	assert.Equal(t, "EP", group.PrimaryType)

	group, err = mb.ReleaseGroup(context.Background(), "rg-ep")
	require.NoError(t, err)
	assert.Equal(t, "Mini", group.Title)
	assert.Equal(t, int32(1), fake.lookups.Load())

	_, err = mb.ReleaseGroup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = mb.ReleaseGroup(context.Background(), " ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMusicBrainz_SearchReleaseGroups(t *testing.T) {
	mb, fake := newTestMusicBrainz(t)

	groups, err := mb.SearchReleaseGroups(context.Background(), `Daft "Punk"`, "Discovery")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "rg-studio", groups[0].ID)
	assert.Equal(t, `releasegroup:"Discovery" AND artist:"Daft \"Punk\""`, fake.query.Load())

	groups, err = mb.SearchReleaseGroups(context.Background(), `Daft "Punk"`, "Discovery")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "rg-studio", groups[0].ID)
	assert.Equal(t, int32(1), fake.searches.Load())

	groups, err = mb.SearchReleaseGroups(context.Background(), "", "Discovery")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestMusicBrainz_Classify(t *testing.T) {
	tests := []struct {
		name     string
		album    model.Album
		expected *model.ReleaseClassification
	}{
		{
			name:  "by id",
			album: model.Album{Artist: "Someone", Title: "Mini", ExternalID: "rg-ep"},
			expected: &model.ReleaseClassification{
				PrimaryType:    "EP",
				SecondaryTypes: []string{},
				Confidence:     1.0,
			},
		},
		{
			name:  "search after failed lookup",
			album: model.Album{Artist: "Daft Punk", Title: "Discovery", ExternalID: "unknown"},
			expected: &model.ReleaseClassification{
				PrimaryType: "Album",
				Confidence:  0.7,
			},
		},
		{
			name:  "search",
			album: model.Album{Artist: "Daft Punk", Title: "Discovery"},
			expected: &model.ReleaseClassification{
				PrimaryType: "Album",
				Confidence:  0.8,
			},
		},
		{
			name:     "nothing found",
			album:    model.Album{Artist: "Nobody", Title: "Nothing"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb, _ := newTestMusicBrainz(t)
			classification, err := mb.Classify(context.Background(), tt.album)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, classification)
		})
	}
}

func TestMusicBrainz_ClassifyCancelled(t *testing.T) {
	mb, _ := newTestMusicBrainz(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mb.Classify(ctx, model.Album{Artist: "Daft Punk", Title: "Discovery", ExternalID: "rg-ep"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPreferTitle(t *testing.T) {
	groups := []ReleaseGroup{
		{ID: "1", Title: "Discovery Live"},
		{ID: "2", Title: "Homework"},
	}

	assert.Equal(t, []ReleaseGroup{{ID: "1", Title: "Discovery Live"}}, preferTitle(groups, "discovery"))
	assert.Equal(t, groups, preferTitle(groups, "Alive 1997"))
	assert.Empty(t, preferTitle(nil, "Discovery"))
}
