package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewJobID returns a new public job identifier. Job IDs are handed to
// external pollers, so they are opaque nanoids rather than database keys.
func NewJobID() (string, error) {
	return gonanoid.New()
}
