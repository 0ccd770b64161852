package storage

import (
	"context"
)

// Client abstracts the subset of object storage operations the indexer needs.
type Client interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	Location(key string) string
}
