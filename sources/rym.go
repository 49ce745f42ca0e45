package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/csmith/albumfinder/model"
)

// Column headers in a RateYourMusic export. Some exports pad headers with
// spaces, so they're compared after trimming.
const (
	rymTitle              = "Title"
	rymFirstName          = "First Name"
	rymLastName           = "Last Name"
	rymFirstNameLocalized = "First Name localized"
	rymLastNameLocalized  = "Last Name localized"
	rymReleaseDate        = "Release_Date"
	rymRating             = "Rating"
)

// ReadRYM reads rated albums from a RateYourMusic CSV export
func ReadRYM(path string) ([]model.RatedAlbum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseRYM(f)
}

// ParseRYM parses a RateYourMusic CSV export. Albums without a positive
// rating, a title and an artist are skipped.
func ParseRYM(r io.Reader) ([]model.RatedAlbum, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("RYM export is empty")
	} else if err != nil {
		return nil, fmt.Errorf("failed to read RYM header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	}

	for _, required := range []string{rymTitle, rymRating} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("RYM export is missing the %q column", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var albums []model.RatedAlbum
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to read RYM export: %w", err)
		}

		rating, err := strconv.ParseFloat(field(record, rymRating), 64)
		if err != nil || math.IsNaN(rating) || rating <= 0 {
			skipped++
			continue
		}

		album := model.RatedAlbum{
			Title:           field(record, rymTitle),
			Artist:          joinName(field(record, rymFirstName), field(record, rymLastName)),
			ArtistLocalized: joinName(field(record, rymFirstNameLocalized), field(record, rymLastNameLocalized)),
			ReleaseDate:     field(record, rymReleaseDate),
			Rating:          rating,
		}

		if album.Title == "" || album.Artist == "" {
			skipped++
			continue
		}

		albums = append(albums, album)
	}

	slog.Debug("Read RYM export", "rated", len(albums), "skipped", skipped)
	return albums, nil
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
