// Package storage hosts cover images. The catalog only needs one promise
// from a host: given an image, return a stable public URL.
package storage

import "context"

type CoverHost interface {
	// Put stores the image under name and returns its public URL.
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}
