package sources

import (
	"context"
	"log/slog"

	"github.com/csmith/albumfinder/model"
)

// Enrich returns a copy of the albums with their release classification
// filled in by the classifier. Albums that can't be classified are left
// without one; only a cancelled context stops enrichment early.
func Enrich(ctx context.Context, classifier model.Classifier, albums []model.Album) ([]model.Album, error) {
	slog.Info("Enriching albums with release types", "count", len(albums))

	enriched := make([]model.Album, len(albums))
	classified := 0
	for i, album := range albums {
		if i%10 == 0 {
			slog.Debug("Enriching albums", "progress", i+1, "total", len(albums))
		}

		enriched[i] = album

		classification, err := classifier.Classify(ctx, album)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Failed to classify album", "artist", album.Artist, "title", album.Title, "error", err)
			continue
		}

		if classification != nil {
			enriched[i].Classification = classification
			classified++
		}
	}

	slog.Info("Enrichment complete", "count", len(albums), "classified", classified)
	return enriched, nil
}

// Enriched wraps a HistorySource, classifying each album it returns
type Enriched struct {
	Source     model.HistorySource
	Classifier model.Classifier
}

// Albums retrieves albums from the wrapped source and classifies them
func (e *Enriched) Albums(ctx context.Context) ([]model.Album, error) {
	albums, err := e.Source.Albums(ctx)
	if err != nil {
		return nil, err
	}

	return Enrich(ctx, e.Classifier, albums)
}

var _ model.HistorySource = &Enriched{}
