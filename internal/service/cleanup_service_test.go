package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type retentionStoreStub struct {
	deleted int64
	err     error
	days    int
	calls   int
}

func (s *retentionStoreStub) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	s.calls++
	s.days = days
	return s.deleted, s.err
}

func TestCleanupRunSweeps(t *testing.T) {
	store := &retentionStoreStub{deleted: 12}
	svc := NewCleanupService(store, 45, nil, nil)

	svc.Run(context.Background())
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 45, store.days)
}

func TestCleanupDefaultsRetention(t *testing.T) {
	store := &retentionStoreStub{}
	svc := NewCleanupService(store, 0, nil, nil)

	svc.Run(context.Background())
	assert.Equal(t, 30, store.days)
}

func TestCleanupSwallowsErrors(t *testing.T) {
	store := &retentionStoreStub{err: errors.New("db down")}
	svc := NewCleanupService(store, 30, nil, nil)

	// Must not panic and must not propagate.
	svc.Run(context.Background())
	assert.Equal(t, 1, store.calls)
}
