package cachestore

import "time"

// Persistence

// Entry is one cached response: the body fetched from an asset URL plus
// the response attributes needed to serve it back later.
type Entry struct {
	Body        []byte
	ContentType string
	StatusCode  int
	FetchedAt   time.Time
}

// indexRecord is the on-disk form of one index row. The body lives in a
// separate object file; the index holds only lookup metadata.
type indexRecord struct {
	Object      string    `json:"object"`
	ContentType string    `json:"contentType,omitempty"`
	StatusCode  int       `json:"statusCode"`
	FetchedAt   time.Time `json:"fetchedAt"`
	SizeByte    int64     `json:"sizeByte"`
}

// storeIndex is the serialized index.json document.
type storeIndex struct {
	Name    string                 `json:"name"`
	Entries map[string]indexRecord `json:"entries"`
}
