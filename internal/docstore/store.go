// Package docstore persists rendered itinerary documents. FileStore keeps
// them in a local directory for development; S3Store writes to an S3 (or
// S3-compatible) bucket.
package docstore

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when the key holds no document.
var ErrNotFound = errors.New("docstore: document not found")

// Store reads and writes document blobs.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) (body []byte, contentType string, err error)
}

// ExtensionFor maps a content type onto the file extension used in keys.
func ExtensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "text/html"):
		return ".html"
	case strings.HasPrefix(ct, "application/pdf"):
		return ".pdf"
	default:
		return ".txt"
	}
}

// KeyFor builds the document key of a trip.
func KeyFor(tripID, contentType string) string {
	return "trips/" + tripID + ExtensionFor(contentType)
}

func validKey(key string) bool {
	return key != "" && !strings.HasPrefix(key, "/") && !strings.Contains(key, "..")
}
