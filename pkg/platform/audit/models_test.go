package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credo/pkg/domain"
	"credo/pkg/platform/audit"
	auditmemory "credo/pkg/platform/audit/store/memory"
)

var (
	alice = domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	bob   = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
)

type failingStore struct{ err error }

func (f failingStore) Append(context.Context, audit.Event) error { return f.err }

func TestEventInvolves(t *testing.T) {
	ev := audit.Event{Actor: alice, Target: bob}
	assert.True(t, ev.Involves(alice))
	assert.True(t, ev.Involves(bob))
	assert.False(t, ev.Involves(domain.MustParseAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")))
}

func TestRegistryEventCategory(t *testing.T) {
	assert.Equal(t, audit.CategoryGovernance, audit.EventIssuerAdded.Category())
	assert.Equal(t, audit.CategoryGovernance, audit.EventOwnershipTransferred.Category())
	assert.Equal(t, audit.CategoryCredential, audit.EventCredentialIssued.Category())
	assert.Equal(t, audit.CategoryCredential, audit.EventCredentialRevoked.Category())
	assert.Equal(t, audit.CategoryGovernance, audit.RegistryEvent("unknown").Category())
}

func TestTee(t *testing.T) {
	ctx := context.Background()

	t.Run("appends to every store and reads from the first reader", func(t *testing.T) {
		first := auditmemory.NewInMemoryStore()
		second := auditmemory.NewInMemoryStore()
		tee := audit.Tee(first, second)

		require.NoError(t, tee.Append(ctx, audit.Event{Action: "issuer_added", Actor: alice, Target: bob}))

		assertCount(t, first, 1)
		assertCount(t, second, 1)

		reader, ok := tee.(audit.Reader)
		require.True(t, ok)
		events, err := reader.ListByAddress(ctx, bob)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("stops at first error", func(t *testing.T) {
		boom := errors.New("boom")
		after := auditmemory.NewInMemoryStore()
		tee := audit.Tee(failingStore{err: boom}, after)

		err := tee.Append(ctx, audit.Event{Action: "issuer_added"})
		assert.ErrorIs(t, err, boom)
		assertCount(t, after, 0)
	})

	t.Run("without reader", func(t *testing.T) {
		tee := audit.Tee(failingStore{})
		_, err := tee.(audit.Reader).ListByAddress(ctx, alice)
		assert.ErrorIs(t, err, audit.ErrNotQueryable)
	})
}

func assertCount(t *testing.T, s *auditmemory.InMemoryStore, want int) {
	t.Helper()
	events, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, want)
}
