package shortener_test

import (
	"context"
	"errors"

	"github.com/serroba/shortlink/internal/shortener"
)

var errMock = errors.New("mock error")

// mockRepository is a test double for shortener.Repository that can be configured to return errors.
type mockRepository struct {
	createErrs       []error
	findByURLErr     error
	findByURLResults []*shortener.Record
	deactivateErr    error
	createCalls      int
	findByURLCalls   int
	created          []shortener.Record
}

func (m *mockRepository) Create(_ context.Context, record *shortener.Record) error {
	m.createCalls++
	m.created = append(m.created, *record)

	if len(m.createErrs) == 0 {
		return nil
	}

	err := m.createErrs[0]
	m.createErrs = m.createErrs[1:]

	return err
}

func (m *mockRepository) FindActiveByHash(_ context.Context, _ shortener.Hash) (*shortener.Record, error) {
	return nil, shortener.ErrNotFound
}

func (m *mockRepository) FindActiveByURL(_ context.Context, _ string) (*shortener.Record, error) {
	m.findByURLCalls++

	if m.findByURLErr != nil {
		return nil, m.findByURLErr
	}

	if len(m.findByURLResults) == 0 {
		return nil, shortener.ErrNotFound
	}

	record := m.findByURLResults[0]
	m.findByURLResults = m.findByURLResults[1:]

	if record == nil {
		return nil, shortener.ErrNotFound
	}

	return record, nil
}

func (m *mockRepository) Deactivate(_ context.Context, _ shortener.Hash, _ string) (bool, error) {
	return false, m.deactivateErr
}
