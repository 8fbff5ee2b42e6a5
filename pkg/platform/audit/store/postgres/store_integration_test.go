//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"credo/pkg/domain"
	"credo/pkg/platform/audit"
	"credo/pkg/testutil/containers"
)

var (
	owner  = domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	issuer = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	holder = domain.MustParseAddress("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")
)

type StoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = New(s.pg.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *StoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "registry_events"))
}

func (s *StoreSuite) event(action audit.RegistryEvent, actor, target domain.Address) audit.Event {
	return audit.Event{
		ID:        uuid.New(),
		Category:  action.Category(),
		Timestamp: time.Unix(1_700_000_000, 0).UTC(),
		Action:    string(action),
		Actor:     actor,
		Target:    target,
	}
}

func (s *StoreSuite) TestAppendAndListByAddress() {
	ctx := context.Background()
	added := s.event(audit.EventIssuerAdded, owner, issuer)
	issued := s.event(audit.EventCredentialIssued, issuer, holder)
	issued.CredentialID = 1
	issued.IPFSHash = "QmHash"
	issued.ExpiresAt = 1_800_000_000
	issued.RequestID = "req-7"
	issued.Client = "Firefox on Linux x86_64"

	s.Require().NoError(s.store.Append(ctx, added))
	s.Require().NoError(s.store.Append(ctx, issued))

	events, err := s.store.ListByAddress(ctx, issuer)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(added.ID, events[0].ID)
	s.Equal(issued.ID, events[1].ID)
	s.Equal(audit.CategoryCredential, events[1].Category)
	s.Equal(uint64(1), events[1].CredentialID)
	s.Equal("QmHash", events[1].IPFSHash)
	s.Equal(int64(1_800_000_000), events[1].ExpiresAt)
	s.Equal("req-7", events[1].RequestID)
	s.Equal("Firefox on Linux x86_64", events[1].Client)
	s.Empty(events[0].Client)
	s.True(issued.Timestamp.Equal(events[1].Timestamp))

	events, err = s.store.ListByAddress(ctx, holder)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *StoreSuite) TestAppendIsIdempotentOnID() {
	ctx := context.Background()
	ev := s.event(audit.EventOwnershipTransferred, owner, issuer)

	s.Require().NoError(s.store.Append(ctx, ev))
	s.Require().NoError(s.store.Append(ctx, ev))

	events, err := s.store.ListByAddress(ctx, owner)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *StoreSuite) TestListByAddressEmpty() {
	events, err := s.store.ListByAddress(context.Background(), owner)
	s.Require().NoError(err)
	s.NotNil(events)
	s.Empty(events)
}
