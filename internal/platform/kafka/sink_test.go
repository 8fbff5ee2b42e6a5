package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credo/internal/platform/config"
	"credo/pkg/domain"
	"credo/pkg/platform/audit"
	"credo/pkg/platform/circuit"
)

var (
	issuer = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	holder = domain.MustParseAddress("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")
)

func TestNewSink_NoBrokers(t *testing.T) {
	_, err := NewSink(config.KafkaConfig{Topic: "events"})
	require.Error(t, err)
}

func TestToRecord(t *testing.T) {
	id := uuid.New()
	ev := audit.Event{
		ID:           id,
		Category:     audit.CategoryCredential,
		Timestamp:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Action:       string(audit.EventCredentialIssued),
		Actor:        issuer,
		Target:       holder,
		CredentialID: 7,
		IPFSHash:     "QmHash",
		ExpiresAt:    1_800_000_000,
		RequestID:    "req-1",
		Client:       "Chrome on Linux x86_64",
	}

	r := toRecord(ev)
	assert.Equal(t, id.String(), r.ID)
	assert.Equal(t, "credential", r.Category)
	assert.Equal(t, "2024-01-02T03:04:05Z", r.Timestamp)
	assert.Equal(t, issuer.Hex(), r.Actor)
	assert.Equal(t, holder.Hex(), r.Target)
	assert.Equal(t, uint64(7), r.CredentialID)
	assert.Equal(t, "req-1", r.RequestID)
	assert.Equal(t, "Chrome on Linux x86_64", r.Client)
}

func TestToRecord_OmitsZeroTarget(t *testing.T) {
	r := toRecord(audit.Event{Action: string(audit.EventOwnershipTransferred), Actor: issuer})
	assert.Empty(t, r.Target)
}

func TestPartitionKey(t *testing.T) {
	assert.Equal(t, "credential:3", partitionKey(audit.Event{CredentialID: 3, Target: holder}))
	assert.Equal(t, holder.Hex(), partitionKey(audit.Event{Target: holder}))
}

func TestAppend_FailsFastWhenBreakerOpen(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := circuit.New("kafka",
		circuit.WithFailureThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	b.RecordFailure()

	// no client: an open breaker must not reach the producer
	s := newSink(nil, "events", WithBreaker(b))
	err := s.Append(context.Background(), audit.Event{Action: "credential_issued", Actor: issuer})
	require.ErrorIs(t, err, ErrUnavailable)
}
