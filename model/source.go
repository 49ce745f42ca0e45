package model

import "context"

// HistorySource represents a service that knows which albums a user listens to
type HistorySource interface {
	Albums(ctx context.Context) ([]Album, error)
}

// Classifier looks up release type information for an album.
// A nil classification with a nil error means nothing was found.
type Classifier interface {
	Classify(ctx context.Context, album Album) (*ReleaseClassification, error)
}
