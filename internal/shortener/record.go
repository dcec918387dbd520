package shortener

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no active record matches a lookup.
	ErrNotFound = errors.New("url not found")
	// ErrInvalidURL is returned by Shorten for input that is not an absolute URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrHashTaken is returned by Repository.Create when the alias is already in use.
	ErrHashTaken = errors.New("hash already taken")
	// ErrURLTaken is returned by Repository.Create when the URL already has an active record.
	ErrURLTaken = errors.New("url already shortened")
)

// Hash is the public alias of a shortened URL.
type Hash string

// Record is a shortened URL.
type Record struct {
	URL string
	// Hash is unique across all records, active or not.
	Hash Hash
	// Protocol, Domain and Path are derived from URL for metrics only.
	Protocol      string
	Domain        string
	Path          string
	RemoveToken   string
	Active        bool
	CreatedAt     time.Time
	DeactivatedAt *time.Time
}
