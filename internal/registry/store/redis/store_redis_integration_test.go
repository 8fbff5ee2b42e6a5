//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"credo/internal/registry/service"
	registryredis "credo/internal/registry/store/redis"
	"credo/internal/registry/store/storetest"
	"credo/pkg/testutil/containers"
)

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.GetManager().GetRedis(t)
	store := registryredis.NewRedis(rc.Client)

	suite.Run(t, &storetest.Suite{
		NewStore: func() service.Store {
			require.NoError(t, rc.FlushAll(context.Background()))
			return store
		},
	})
}
