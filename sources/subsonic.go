package sources

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/csmith/albumfinder/model"
	"github.com/supersonic-app/go-subsonic/subsonic"
)

// Subsonic is a source that retrieves the most frequently played albums from a Subsonic server
type Subsonic struct {
	BaseURL    string
	Username   string
	Password   string
	ClientName string
	Limit      int

	mu     sync.Mutex
	client *subsonic.Client
}

// Albums retrieves albums from the Subsonic server, most played first
func (s *Subsonic) Albums(ctx context.Context) ([]model.Album, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	slog.Debug("Retrieving albums", "source", "subsonic")

	var albums []model.Album
	offset := 0
	const batchSize = 500

	for s.Limit <= 0 || len(albums) < s.Limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := client.GetAlbumList("frequent", map[string]string{
			"size":   strconv.Itoa(batchSize),
			"offset": strconv.Itoa(offset),
		})
		if err != nil {
			return nil, err
		}

		if len(results) == 0 {
			break
		}

		for _, album := range results {
			if a, ok := childToAlbum(album); ok {
				albums = append(albums, a)
			}

			if s.Limit > 0 && len(albums) >= s.Limit {
				break
			}
		}

		if len(results) < batchSize {
			break
		}
		offset += batchSize
	}

	slog.Debug("Retrieved albums", "count", len(albums), "source", "subsonic")
	return albums, nil
}

// getClient lazily connects to the Subsonic server
func (s *Subsonic) getClient() (*subsonic.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	client := &subsonic.Client{
		Client:     http.DefaultClient,
		BaseUrl:    s.BaseURL,
		User:       s.Username,
		ClientName: s.ClientName,
	}

	if s.Password != "" {
		if err := client.Authenticate(s.Password); err != nil {
			return nil, err
		}
	}

	s.client = client
	return s.client, nil
}

// childToAlbum converts a Subsonic album entry, skipping albums that have never been played
func childToAlbum(child *subsonic.Child) (model.Album, bool) {
	title := child.Album
	if title == "" {
		title = child.Title
	}

	if child.Artist == "" || title == "" || child.PlayCount <= 0 {
		return model.Album{}, false
	}

	return model.Album{
		Artist:     child.Artist,
		Title:      title,
		PlayCount:  int(child.PlayCount),
		ExternalID: child.MusicBrainzID,
	}, true
}

var _ model.HistorySource = &Subsonic{}
