package util

import "github.com/google/uuid"

// NewID returns a random UUID, optionally prefixed as "<prefix>_<uuid>".
func NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// ShortID returns the first eight hex digits of a random UUID.
func ShortID() string {
	return uuid.NewString()[:8]
}
