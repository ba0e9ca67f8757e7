// Package cache stores named, versioned buckets of fetched assets.
package cache

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrEmptyBucket is returned when a bucket name is blank.
var ErrEmptyBucket = errors.New("cache: bucket name is required")

// Entry is one cached response.
type Entry struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Store holds cache buckets. Buckets are only removed explicitly; there is
// no automatic eviction.
type Store interface {
	// Put writes entries into bucket, creating it if needed. Either every
	// entry is stored or none is.
	Put(ctx context.Context, bucket string, entries ...Entry) error

	// Match looks url up across all buckets in creation order and returns
	// the first hit, or nil when no bucket has it.
	Match(ctx context.Context, url string) (*Entry, error)

	// Buckets returns bucket names in creation order.
	Buckets(ctx context.Context) ([]string, error)

	// Delete drops a bucket and reports whether it existed.
	Delete(ctx context.Context, bucket string) (bool, error)

	Close() error
}
