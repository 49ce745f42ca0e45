package model

// Album is an album from a listening history, along with how often it was played
type Album struct {
	Artist     string `json:"artist"`
	Title      string `json:"title"`
	PlayCount  int    `json:"play_count"`
	ExternalID string `json:"mbid,omitempty"`

	// Classification is nil until an enrichment pass has looked the album up
	Classification *ReleaseClassification `json:"classification,omitempty"`
}

// ReleaseClassification describes what kind of release an album is, as reported
// by an external metadata service
type ReleaseClassification struct {
	PrimaryType    string   `json:"primary_type"`
	SecondaryTypes []string `json:"secondary_types"`
	Confidence     float64  `json:"confidence"`
}

// RatedAlbum is an album that has been given a positive rating
type RatedAlbum struct {
	Title           string
	Artist          string
	ArtistLocalized string
	ReleaseDate     string
	Rating          float64
}

// BlacklistEntry identifies an album that should never be reported as unrated
type BlacklistEntry struct {
	Artist string `json:"artist" yaml:"artist"`
	Title  string `json:"title" yaml:"title"`
}
