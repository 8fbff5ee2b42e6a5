//go:build integration

package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"credo/internal/platform/config"
	"credo/pkg/testutil/containers"
)

func TestNew_PingsServer(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)

	cfg := config.Default().Redis
	cfg.URL = rc.URL

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Health(context.Background()))
}
