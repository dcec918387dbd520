package identifier

import "github.com/google/uuid"

// Generator produces random 128-bit identifiers.
type Generator func() uuid.UUID

// New returns a random version 4 UUID.
func New() uuid.UUID {
	return uuid.New()
}

// NewString returns a random version 4 UUID in its canonical 8-4-4-4-12 form.
func NewString() string {
	return uuid.NewString()
}
