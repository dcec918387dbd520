package shortener

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/hashcodec"
	"github.com/serroba/shortlink/internal/identifier"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	// DefaultMaxHashAttempts bounds alias regeneration when a hash is already taken.
	DefaultMaxHashAttempts = 5

	msgDeactivated = "URL successfully deactivated."
	msgNoMatch     = "There is no matching URL for the provided hash and removeToken."
)

// Shortened is the outcome of a Shorten call.
type Shortened struct {
	URL           string
	ShortenedLink string
	Hash          Hash
	RemovalLink   string
	// Created is false when an active record for the URL already existed.
	Created bool
}

// Deactivation is the outcome of a Deactivate call that reached the store.
// A credential pair that matches nothing is still a successful operation
// with Removed set to false.
type Deactivation struct {
	Success bool
	Removed bool
	Message string
}

// Service creates, resolves and deactivates shortened URLs.
type Service struct {
	repo            Repository
	baseURL         string
	newID           identifier.Generator
	validate        *validator.Validate
	maxHashAttempts int
	reserved        map[Hash]struct{}
	logger          *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIdentifierGenerator replaces the source of aliases and removal tokens.
func WithIdentifierGenerator(gen identifier.Generator) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// WithMaxHashAttempts sets how many aliases Shorten tries before giving up.
func WithMaxHashAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHashAttempts = n
		}
	}
}

// WithReservedHashes keeps Shorten from handing out aliases that collide with
// fixed routes.
func WithReservedHashes(hashes ...Hash) Option {
	return func(s *Service) {
		for _, h := range hashes {
			s.reserved[h] = struct{}{}
		}
	}
}

// WithValidator shares a validator instance with the caller.
func WithValidator(v *validator.Validate) Option {
	return func(s *Service) {
		s.validate = v
	}
}

// WithLogger sets the logger used for conflict diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a shortening service. Links are built on top of baseURL.
func NewService(repo Repository, baseURL string, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		newID:           identifier.New,
		maxHashAttempts: DefaultMaxHashAttempts,
		reserved:        make(map[Hash]struct{}),
		logger:          zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.validate == nil {
		s.validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return s
}

// Shorten returns the active alias for rawURL, creating one if none exists.
func (s *Service) Shorten(ctx context.Context, rawURL string) (*Shortened, error) {
	if err := s.validate.Var(rawURL, "required,url"); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	existing, err := s.repo.FindActiveByURL(ctx, rawURL)
	if err == nil {
		return s.shortened(existing, false), nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find url: %w", err)
	}

	record, err := newRecord(rawURL, s.newID())
	if err != nil {
		return nil, err
	}

	err = s.create(ctx, record)
	if errors.Is(err, ErrURLTaken) {
		// a concurrent request created the record first
		existing, err = s.repo.FindActiveByURL(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("find url after conflict: %w", err)
		}

		return s.shortened(existing, false), nil
	}

	if err != nil {
		return nil, err
	}

	return s.shortened(record, true), nil
}

// LookupActive returns the active record for hash or ErrNotFound.
func (s *Service) LookupActive(ctx context.Context, hash Hash) (*Record, error) {
	if !hashcodec.Valid(string(hash)) {
		return nil, ErrNotFound
	}

	return s.repo.FindActiveByHash(ctx, hash)
}

// Deactivate marks the record identified by both hash and removeToken as inactive.
// Only store failures are returned as errors.
func (s *Service) Deactivate(ctx context.Context, hash Hash, removeToken string) (*Deactivation, error) {
	matched, err := s.repo.Deactivate(ctx, hash, removeToken)
	if err != nil {
		return nil, fmt.Errorf("deactivate %s: %w", hash, err)
	}

	if !matched {
		return &Deactivation{Success: true, Removed: false, Message: msgNoMatch}, nil
	}

	return &Deactivation{Success: true, Removed: true, Message: msgDeactivated}, nil
}

// ShortenedLink returns the public link for hash.
func (s *Service) ShortenedLink(hash Hash) string {
	return s.baseURL + "/" + string(hash)
}

// RemovalLink returns the link that deactivates hash.
func (s *Service) RemovalLink(hash Hash, removeToken string) string {
	return s.baseURL + "/" + string(hash) + "/remove/" + removeToken
}

func (s *Service) create(ctx context.Context, record *Record) error {
	attempts := 0
	backoff := retry.WithMaxRetries(uint64(s.maxHashAttempts-1), retry.NewConstant(time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		record.Hash = Hash(hashcodec.Encode(s.newID()))

		var err error
		if _, ok := s.reserved[record.Hash]; ok {
			err = ErrHashTaken
		} else {
			err = s.repo.Create(ctx, record)
		}

		if errors.Is(err, ErrHashTaken) {
			s.logger.Warn("generated hash already taken",
				zap.String("hash", string(record.Hash)),
				zap.Int("attempt", attempts),
			)

			return retry.RetryableError(err)
		}

		return err
	})

	switch {
	case err == nil, errors.Is(err, ErrURLTaken):
		return err
	case errors.Is(err, ErrHashTaken):
		return fmt.Errorf("allocate hash after %d attempts: %w", attempts, err)
	default:
		return fmt.Errorf("create record: %w", err)
	}
}

func (s *Service) shortened(record *Record, created bool) *Shortened {
	return &Shortened{
		URL:           record.URL,
		ShortenedLink: s.ShortenedLink(record.Hash),
		Hash:          record.Hash,
		RemovalLink:   s.RemovalLink(record.Hash, record.RemoveToken),
		Created:       created,
	}
}

func newRecord(rawURL string, token uuid.UUID) (*Record, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	return &Record{
		URL:         rawURL,
		Protocol:    u.Scheme,
		Domain:      domainOf(u),
		Path:        pathOf(u),
		RemoveToken: token.String(),
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func domainOf(u *url.URL) string {
	if u.User == nil {
		return u.Host
	}

	return u.User.String() + "@" + u.Host
}

func pathOf(u *url.URL) string {
	path := u.EscapedPath()
	if u.Opaque != "" {
		path = u.Opaque
	}

	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	if u.Fragment != "" {
		path += "#" + u.EscapedFragment()
	}

	return path
}
