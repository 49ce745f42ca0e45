package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/csmith/albumfinder/model"
	"github.com/twoscott/gobble-fm/api"
	"github.com/twoscott/gobble-fm/lastfm"
)

// LastfmPeriods are the time periods Last.fm can report top albums for
var LastfmPeriods = []string{"overall", "7day", "1month", "3month", "6month", "12month"}

// Lastfm is a source that retrieves a user's top albums from Last.fm
type Lastfm struct {
	APIKey   string
	Username string
	Period   string
	Limit    int

	mu     sync.Mutex
	client *api.Client
}

// Albums retrieves the user's top albums for the configured period
func (l *Lastfm) Albums(ctx context.Context) ([]model.Album, error) {
	period, err := l.period()
	if err != nil {
		return nil, err
	}

	client := l.getClient()

	slog.Debug("Retrieving albums", "source", "lastfm", "period", period)

	var albums []model.Album
	page := uint(1)
	const pageSize = 200

	for l.Limit <= 0 || len(albums) < l.Limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		limit := uint(pageSize)
		if l.Limit > 0 {
			limit = uint(min(pageSize, l.Limit-len(albums)))
		}

		topAlbums, err := client.User.TopAlbums(lastfm.UserTopAlbumsParams{
			User:   l.Username,
			Period: lastfm.Period(period),
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			return nil, err
		}

		if len(topAlbums.Albums) == 0 {
			break
		}

		for _, album := range topAlbums.Albums {
			if album.Artist.Name == "" || album.Title == "" || album.Playcount <= 0 {
				continue
			}

			albums = append(albums, model.Album{
				Artist:     album.Artist.Name,
				Title:      album.Title,
				PlayCount:  int(album.Playcount),
				ExternalID: album.MBID,
			})

			if l.Limit > 0 && len(albums) >= l.Limit {
				break
			}
		}

		if page >= uint(topAlbums.TotalPages) {
			break
		}
		page++
	}

	slog.Debug("Retrieved albums", "count", len(albums), "source", "lastfm")
	return albums, nil
}

func (l *Lastfm) period() (string, error) {
	if l.Period == "" {
		return "overall", nil
	}

	for _, p := range LastfmPeriods {
		if p == l.Period {
			return p, nil
		}
	}

	return "", fmt.Errorf("invalid Last.fm period: %s", l.Period)
}

// getClient lazily creates the Last.fm client
func (l *Lastfm) getClient() *api.Client {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client == nil {
		l.client = api.NewClientKeyOnly(l.APIKey)
	}

	return l.client
}

var _ model.HistorySource = &Lastfm{}
