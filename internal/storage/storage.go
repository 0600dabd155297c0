// Package storage manages the files a composition touches: the private
// scratch namespace of each in-flight request, the output directory that
// finished composites are written to, and optional delivery to S3.
package storage

import (
	"context"
	"errors"
)

// ErrS3NotConfigured is returned when S3 operations are attempted
// without proper configuration.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// Publisher delivers a finished file to durable storage.
type Publisher interface {
	// Publish uploads the file at path under key and returns its URL.
	Publish(ctx context.Context, key, path, contentType string) (url string, err error)
}

// NopPublisher rejects every publish with ErrS3NotConfigured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(_ context.Context, _, _, _ string) (string, error) {
	return "", ErrS3NotConfigured
}
