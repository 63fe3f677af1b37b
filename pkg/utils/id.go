package utils

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// NewID returns a lexically sortable, URL-safe identifier.
func NewID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
