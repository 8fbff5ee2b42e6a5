//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"credo/internal/registry/models"
	"credo/internal/registry/service"
	"credo/internal/registry/store/postgres"
	"credo/internal/registry/store/storetest"
	"credo/pkg/testutil/containers"
)

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pg := containers.GetManager().GetPostgres(t)
	store := postgres.New(pg.DB)
	require.NoError(t, store.Migrate(context.Background()))

	suite.Run(t, &storetest.Suite{
		NewStore: func() service.Store {
			err := pg.TruncateTables(context.Background(), "registry_credentials", "registry_issuers", "registry_meta")
			require.NoError(t, err)
			return store
		},
	})
}

// TestConcurrentInsertSameID verifies that racing inserts for the next id
// produce exactly one credential.
func TestConcurrentInsertSameID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pg := containers.GetManager().GetPostgres(t)
	store := postgres.New(pg.DB)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, pg.TruncateTables(ctx, "registry_credentials", "registry_issuers", "registry_meta"))

	const goroutines = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := models.NewCredential(1, storetest.IssuerA, storetest.Subject, "QmHash", time.Now(), 0)
			if err != nil {
				return
			}
			if store.InsertCredential(ctx, c) == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), successes.Load())
	count, err := store.CredentialCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}
