package platform

import (
	"context"
	"fmt"
)

// SearchResult is the decoded body of a search call.
type SearchResult struct {
	Total int      `json:"total"`
	Data  []Entity `json:"data"`
}

// First returns the first entity or nil.
func (r *SearchResult) First() Entity {
	if r == nil || len(r.Data) == 0 {
		return nil
	}
	return r.Data[0]
}

// Repository is the subset of the platform's data layer the plugin writes through.
type Repository interface {
	Search(ctx context.Context, entity string, criteria *Criteria) (*SearchResult, error)
	SearchIDs(ctx context.Context, entity string, criteria *Criteria) ([]string, error)
	Upsert(ctx context.Context, entity string, payload []Entity) error
	Delete(ctx context.Context, entity string, keys []Entity) error
}

// MediaUploader imports a remote file into an existing media record.
type MediaUploader interface {
	UploadFromURL(ctx context.Context, mediaID, url, fileName, extension string) error
}

// DocumentSearcher returns raw JSON:API search documents.
type DocumentSearcher interface {
	SearchDocument(ctx context.Context, entity string, criteria *Criteria) ([]byte, error)
}

// APIError is a non-2xx answer from the platform.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform API error: status %d, body: %s", e.Status, e.Body)
}
