package handlers_test

import (
	"context"
	"errors"
	"sync"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/visits"
)

var errMock = errors.New("mock error")

const testURL = "https://example.com/page"

// mockShortener is a test double for handlers.Shortener that returns configured errors.
type mockShortener struct {
	shortenErr    error
	lookupErr     error
	deactivateErr error
}

func (m *mockShortener) Shorten(_ context.Context, _ string) (*shortener.Shortened, error) {
	return nil, m.shortenErr
}

func (m *mockShortener) LookupActive(_ context.Context, _ shortener.Hash) (*shortener.Record, error) {
	return nil, m.lookupErr
}

func (m *mockShortener) Deactivate(_ context.Context, _ shortener.Hash, _ string) (*shortener.Deactivation, error) {
	return nil, m.deactivateErr
}

// syncRecorder records visits straight into a store.
type syncRecorder struct {
	mu    sync.Mutex
	store visits.Store
	calls int
}

func (r *syncRecorder) RegisterVisit(ctx context.Context, url string, hash shortener.Hash) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	meta := visits.RequestMetaFromContext(ctx)
	_ = r.store.Append(ctx, &visits.Visit{
		URL:       url,
		Hash:      hash,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	})

	return true
}

type failingVisitStore struct{}

func (failingVisitStore) Append(_ context.Context, _ *visits.Visit) error {
	return errMock
}

func (failingVisitStore) ListByHash(_ context.Context, _ shortener.Hash) ([]visits.Visit, error) {
	return nil, errMock
}
