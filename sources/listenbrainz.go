package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/csmith/albumfinder/model"
)

const listenBrainzBaseURL = "https://api.listenbrainz.org"

// ListenBrainz is a source that retrieves a user's most listened to albums from ListenBrainz
type ListenBrainz struct {
	Token    string
	Username string
	Limit    int

	// BaseURL defaults to the public ListenBrainz API
	BaseURL string
	// PageDelay is how long to wait between pages
	PageDelay time.Duration
}

type listenBrainzReleaseGroupsResponse struct {
	Payload struct {
		ReleaseGroups          []listenBrainzReleaseGroup `json:"release_groups"`
		Offset                 int                        `json:"offset"`
		Count                  int                        `json:"count"`
		TotalReleaseGroupCount int                        `json:"total_release_group_count"`
	} `json:"payload"`
}

type listenBrainzReleaseGroup struct {
	ArtistName       string `json:"artist_name"`
	ReleaseGroupName string `json:"release_group_name"`
	ReleaseGroupMBID string `json:"release_group_mbid"`
	ListenCount      int    `json:"listen_count"`
}

// Albums retrieves the user's all-time top release groups from ListenBrainz
func (lb *ListenBrainz) Albums(ctx context.Context) ([]model.Album, error) {
	slog.Debug("Retrieving albums", "source", "listenbrainz")

	var allAlbums []model.Album
	offset := 0
	const pageSize = 100

	for lb.Limit <= 0 || len(allAlbums) < lb.Limit {
		count := pageSize
		if lb.Limit > 0 {
			count = min(pageSize, lb.Limit-len(allAlbums))
		}

		albums, fetched, totalCount, err := lb.fetchAlbumsPage(ctx, offset, count)
		if err != nil {
			return nil, err
		}

		allAlbums = append(allAlbums, albums...)

		if fetched == 0 || offset+fetched >= totalCount {
			break
		}
		offset += fetched

		if err := sleepContext(ctx, lb.PageDelay); err != nil {
			return nil, err
		}
	}

	slog.Debug("Retrieved albums", "count", len(allAlbums), "source", "listenbrainz")
	return allAlbums, nil
}

// fetchAlbumsPage fetches a single page of release group statistics with retry logic.
// It returns the usable albums, the number of entries on the page and the total number of entries.
func (lb *ListenBrainz) fetchAlbumsPage(ctx context.Context, offset, count int) ([]model.Album, int, int, error) {
	const maxRetries = 3

	baseURL := lb.BaseURL
	if baseURL == "" {
		baseURL = listenBrainzBaseURL
	}

	params := url.Values{
		"count":  {strconv.Itoa(count)},
		"offset": {strconv.Itoa(offset)},
		"range":  {"all_time"},
	}
	reqURL := fmt.Sprintf("%s/1/stats/user/%s/release-groups?%s", baseURL, url.PathEscape(lb.Username), params.Encode())

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, 0, 0, err
		}

		if lb.Token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Token %s", lb.Token))
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, 0, 0, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			sleepDuration := lb.getSleepDuration(resp)
			slog.Warn("Rate limited (429), retrying", "attempt", attempt+1, "sleep_seconds", sleepDuration.Seconds(), "source", "listenbrainz")
			if err := sleepContext(ctx, sleepDuration); err != nil {
				return nil, 0, 0, err
			}
			continue
		}

		albums, fetched, total, err := lb.readAlbumsPage(ctx, resp)
		resp.Body.Close()
		return albums, fetched, total, err
	}

	return nil, 0, 0, fmt.Errorf("ListenBrainz: max retries exceeded due to rate limiting")
}

func (lb *ListenBrainz) readAlbumsPage(ctx context.Context, resp *http.Response) ([]model.Album, int, int, error) {
	// Statistics haven't been calculated for this user yet
	if resp.StatusCode == http.StatusNoContent {
		slog.Warn("No statistics available yet", "username", lb.Username, "source", "listenbrainz")
		return nil, 0, 0, nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, 0, fmt.Errorf("ListenBrainz API error: %s - %s", resp.Status, string(body))
	}

	var statsResp listenBrainzReleaseGroupsResponse
	if err := json.NewDecoder(resp.Body).Decode(&statsResp); err != nil {
		return nil, 0, 0, err
	}

	var albums []model.Album
	for _, group := range statsResp.Payload.ReleaseGroups {
		if group.ArtistName == "" || group.ReleaseGroupName == "" || group.ListenCount <= 0 {
			continue
		}

		albums = append(albums, model.Album{
			Artist:     group.ArtistName,
			Title:      group.ReleaseGroupName,
			PlayCount:  group.ListenCount,
			ExternalID: group.ReleaseGroupMBID,
		})
	}

	if err := lb.handleRateLimit(ctx, resp); err != nil {
		return nil, 0, 0, err
	}

	return albums, len(statsResp.Payload.ReleaseGroups), statsResp.Payload.TotalReleaseGroupCount, nil
}

// getSleepDuration calculates sleep duration from rate limit headers
func (lb *ListenBrainz) getSleepDuration(resp *http.Response) time.Duration {
	resetInStr := resp.Header.Get("X-RateLimit-Reset-In")
	if resetInStr != "" {
		if resetIn, err := strconv.Atoi(resetInStr); err == nil {
			return time.Duration(resetIn+5) * time.Second
		}
	}
	return 10 * time.Second
}

// handleRateLimit checks rate limit headers and sleeps if necessary. It only
// returns an error if the context ends while sleeping.
func (lb *ListenBrainz) handleRateLimit(ctx context.Context, resp *http.Response) error {
	remainingStr := resp.Header.Get("X-RateLimit-Remaining")
	resetInStr := resp.Header.Get("X-RateLimit-Reset-In")
	limit := resp.Header.Get("X-RateLimit-Limit")

	if remainingStr == "" {
		return nil
	}

	remaining, err := strconv.Atoi(remainingStr)
	if err != nil {
		return nil
	}

	if remaining <= 1 {
		resetIn, err := strconv.Atoi(resetInStr)
		if err != nil {
			slog.Warn("Rate limit low but couldn't parse reset time", "remaining", remaining, "limit", limit, "source", "listenbrainz")
			return nil
		}

		sleepDuration := time.Duration(resetIn+5) * time.Second
		slog.Warn("Rate limit low, sleeping", "remaining", remaining, "limit", limit, "duration_seconds", sleepDuration.Seconds(), "source", "listenbrainz")
		return sleepContext(ctx, sleepDuration)
	}

	return nil
}

// sleepContext waits for the given duration, or until the context is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ model.HistorySource = &ListenBrainz{}
