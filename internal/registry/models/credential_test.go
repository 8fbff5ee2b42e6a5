package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
)

var (
	issuer  = domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	subject = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	t0      = time.Unix(1_700_000_000, 0)
)

func TestNewCredential_Invariants(t *testing.T) {
	t.Run("rejects id zero", func(t *testing.T) {
		_, err := NewCredential(0, issuer, subject, "QmX", t0, NeverExpires)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("accepts an expiry already in the past", func(t *testing.T) {
		c, err := NewCredential(1, issuer, subject, "QmX", t0, t0.Unix()-10)
		require.NoError(t, err)
		assert.Equal(t, StatusExpired, c.StatusAt(t0))
	})

	t.Run("stores fields verbatim and starts unrevoked", func(t *testing.T) {
		c, err := NewCredential(7, issuer, domain.ZeroAddress, "", t0, NeverExpires)
		require.NoError(t, err)
		assert.Equal(t, CredentialID(7), c.ID)
		assert.Equal(t, issuer, c.Issuer)
		assert.True(t, c.Subject.IsZero())
		assert.Equal(t, t0.Unix(), c.IssuedAt)
		assert.False(t, c.Revoked)
	})
}

func TestCredential_StatusAt(t *testing.T) {
	const day = int64(86400)

	t.Run("never expiring credential stays active", func(t *testing.T) {
		c := &Credential{ID: 1, IssuedAt: t0.Unix()}
		assert.Equal(t, StatusActive, c.StatusAt(t0.Add(100*365*24*time.Hour)))
		assert.True(t, c.IsValidAt(t0.Add(100*365*24*time.Hour)))
	})

	t.Run("expiry boundary is inclusive", func(t *testing.T) {
		c := &Credential{ID: 1, IssuedAt: t0.Unix(), ExpiresAt: t0.Unix() + day}
		assert.True(t, c.IsValidAt(time.Unix(t0.Unix()+day-1, 0)))
		assert.False(t, c.IsValidAt(time.Unix(t0.Unix()+day, 0)))
		assert.Equal(t, StatusExpired, c.StatusAt(time.Unix(t0.Unix()+day, 0)))
	})

	t.Run("revoked takes precedence over expired", func(t *testing.T) {
		c := &Credential{ID: 1, IssuedAt: t0.Unix(), ExpiresAt: t0.Unix() + 1, Revoked: true}
		assert.Equal(t, StatusRevoked, c.StatusAt(t0.Add(time.Hour)))
		assert.False(t, c.IsValidAt(t0))
	})
}

func TestCredential_Times(t *testing.T) {
	c := &Credential{ID: 1, IssuedAt: t0.Unix()}
	assert.True(t, c.IssuedTime().Equal(t0))
	_, ok := c.ExpiryTime()
	assert.False(t, ok)

	c.ExpiresAt = t0.Unix() + 60
	exp, ok := c.ExpiryTime()
	assert.True(t, ok)
	assert.True(t, exp.Equal(t0.Add(time.Minute)))
}

func TestParseCredentialID(t *testing.T) {
	id, err := ParseCredentialID("42")
	require.NoError(t, err)
	assert.Equal(t, CredentialID(42), id)

	id, err = ParseCredentialID("0")
	require.NoError(t, err)
	assert.Equal(t, CredentialID(0), id)

	for _, bad := range []string{"", "-1", "abc", "1.5"} {
		_, err := ParseCredentialID(bad)
		require.Error(t, err, bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}
