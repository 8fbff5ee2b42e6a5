package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const caller = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestMintThenInspect(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "cli-test-key")

	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs([]string{"mint", "--caller", caller, "--ttl", "5m"})
	require.NoError(t, root.Execute())
	token := strings.TrimSpace(out.String())
	require.NotEmpty(t, token)

	out.Reset()
	root = newRootCommand(&out)
	root.SetArgs([]string{"inspect", token})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "caller="+caller)
}

func TestMint_RejectsBadCaller(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs([]string{"mint", "--caller", "0xnope"})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestInspect_RejectsForeignToken(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "key-one")
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs([]string{"mint", "--caller", caller})
	require.NoError(t, root.Execute())
	token := strings.TrimSpace(out.String())

	t.Setenv("JWT_SIGNING_KEY", "key-two")
	root = newRootCommand(&bytes.Buffer{})
	root.SetArgs([]string{"inspect", token})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}
