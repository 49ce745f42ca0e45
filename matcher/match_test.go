package matcher

import (
	"math"
	"testing"

	"github.com/csmith/albumfinder/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name: "defaults",
		},
		{
			name: "custom thresholds",
			opts: []Option{WithThresholds(70, 90)},
		},
		{
			name: "zero thresholds",
			opts: []Option{WithThresholds(0, 0)},
		},
		{
			name:    "negative artist threshold",
			opts:    []Option{WithThresholds(-1, 85)},
			wantErr: true,
		},
		{
			name:    "title threshold above 100",
			opts:    []Option{WithThresholds(85, 100.5)},
			wantErr: true,
		},
		{
			name:    "nan threshold",
			opts:    []Option{WithThresholds(math.NaN(), 85)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(tt.opts...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidThreshold)
				assert.Nil(t, engine)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, engine)
			}
		})
	}
}

func TestNewEngine_NilMetric(t *testing.T) {
	_, err := NewEngine(WithMetric(nil))
	assert.Error(t, err)
}

func TestAccepts(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	tests := []struct {
		name        string
		artistScore float64
		titleScore  float64
		expected    bool
	}{
		{
			name:        "strong artist tolerates loose title",
			artistScore: 95,
			titleScore:  61,
			expected:    true,
		},
		{
			name:        "strong artist at title floor",
			artistScore: 100,
			titleScore:  60,
			expected:    true,
		},
		{
			name:        "strong artist below title floor",
			artistScore: 100,
			titleScore:  59.9,
			expected:    false,
		},
		{
			name:        "good artist needs title threshold",
			artistScore: 94.9,
			titleScore:  61,
			expected:    false,
		},
		{
			name:        "good artist meets title threshold",
			artistScore: 94.9,
			titleScore:  85,
			expected:    true,
		},
		{
			name:        "artist at threshold",
			artistScore: 85,
			titleScore:  85,
			expected:    true,
		},
		{
			name:        "artist below threshold",
			artistScore: 84.9,
			titleScore:  100,
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.accepts(tt.artistScore, tt.titleScore))
		})
	}
}

func TestAccepts_CustomThresholds(t *testing.T) {
	engine, err := NewEngine(WithThresholds(70, 90))
	require.NoError(t, err)

	assert.True(t, engine.accepts(75, 90))
	assert.False(t, engine.accepts(75, 89))
	assert.True(t, engine.accepts(96, 60))
	assert.False(t, engine.accepts(69, 100))
}

func TestScore(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	tests := []struct {
		name           string
		artist         string
		title          string
		reference      model.RatedAlbum
		expectedOK     bool
		expectedArtist float64
		expectedTitle  float64
	}{
		{
			name:   "exact",
			artist: "daft punk",
			title:  "discovery",
			reference: model.RatedAlbum{
				Artist: "Daft Punk",
				Title:  "Discovery",
				Rating: 4.5,
			},
			expectedOK:     true,
			expectedArtist: 100,
			expectedTitle:  100,
		},
		{
			name:   "localized artist",
			artist: "кино",
			title:  "группа крови",
			reference: model.RatedAlbum{
				Artist:          "Kino",
				ArtistLocalized: "Кино",
				Title:           "Группа крови",
				Rating:          5,
			},
			expectedOK:     true,
			expectedArtist: 100,
			expectedTitle:  100,
		},
		{
			name:   "missing title",
			artist: "daft punk",
			title:  "discovery",
			reference: model.RatedAlbum{
				Artist: "Daft Punk",
				Rating: 3,
			},
			expectedOK: false,
		},
		{
			name:   "missing artist",
			artist: "daft punk",
			title:  "discovery",
			reference: model.RatedAlbum{
				ArtistLocalized: "Daft Punk",
				Title:           "Discovery",
				Rating:          3,
			},
			expectedOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := prepare([]model.RatedAlbum{tt.reference})
			candidate, ok := engine.score(tt.artist, tt.title, refs[0])
			assert.Equal(t, tt.expectedOK, ok)
			if ok {
				assert.Equal(t, tt.reference, candidate.Reference)
				assert.InDelta(t, tt.expectedArtist, candidate.ArtistScore, 0.0001)
				assert.InDelta(t, tt.expectedTitle, candidate.TitleScore, 0.0001)
				assert.InDelta(t, tt.expectedArtist*0.6+tt.expectedTitle*0.4, candidate.CombinedScore, 0.0001)
			}
		})
	}
}
