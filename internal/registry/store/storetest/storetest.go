// Package storetest holds the behaviour every registry store must share. Store
// packages embed Suite and supply a factory returning an empty store.
package storetest

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/suite"

	"credo/internal/registry/models"
	"credo/internal/registry/service"
	"credo/pkg/domain"
	"credo/pkg/platform/sentinel"
)

var (
	Owner   = domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	IssuerA = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	IssuerB = domain.MustParseAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
	Subject = domain.MustParseAddress("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")
)

type Suite struct {
	suite.Suite
	// NewStore returns an empty store. It runs before every test.
	NewStore func() service.Store

	ctx   context.Context
	store service.Store
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

func (s *Suite) credential(id uint64, issuer domain.Address, expiresAt int64) *models.Credential {
	c, err := models.NewCredential(models.CredentialID(id), issuer, Subject, "QmHash", time.Unix(1_700_000_000, 0), expiresAt)
	s.Require().NoError(err)
	return c
}

func (s *Suite) TestOwnerNotInitialized() {
	_, err := s.store.Owner(s.ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *Suite) TestOwnerSetAndRenounce() {
	s.Require().NoError(s.store.SetOwner(s.ctx, Owner))
	got, err := s.store.Owner(s.ctx)
	s.Require().NoError(err)
	s.Equal(Owner, got)

	s.Require().NoError(s.store.SetOwner(s.ctx, domain.ZeroAddress))
	got, err = s.store.Owner(s.ctx)
	s.Require().NoError(err, "renounced registry is still initialized")
	s.True(got.IsZero())
}

func (s *Suite) TestIssuerMembership() {
	ok, err := s.store.IsIssuer(s.ctx, IssuerA)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.AddIssuers(s.ctx, IssuerA))
	s.Require().NoError(s.store.AddIssuers(s.ctx, IssuerA))

	ok, err = s.store.IsIssuer(s.ctx, IssuerA)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.IsIssuer(s.ctx, IssuerB)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *Suite) TestInsertAndFindCredential() {
	count, err := s.store.CredentialCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(0), count)

	want := s.credential(1, IssuerA, 1_800_000_000)
	s.Require().NoError(s.store.InsertCredential(s.ctx, want))

	got, err := s.store.FindCredential(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(*want, *got)

	count, err = s.store.CredentialCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), count)
}

func (s *Suite) TestInsertOutOfSequenceConflicts() {
	err := s.store.InsertCredential(s.ctx, s.credential(2, IssuerA, 0))
	s.True(errors.Is(err, sentinel.ErrConflict), "got %v", err)

	s.Require().NoError(s.store.InsertCredential(s.ctx, s.credential(1, IssuerA, 0)))
	err = s.store.InsertCredential(s.ctx, s.credential(1, IssuerA, 0))
	s.True(errors.Is(err, sentinel.ErrConflict), "got %v", err)

	count, err := s.store.CredentialCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), count)
}

func (s *Suite) TestFindMissingCredential() {
	_, err := s.store.FindCredential(s.ctx, 0)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindCredential(s.ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *Suite) TestMarkRevoked() {
	s.Require().NoError(s.store.InsertCredential(s.ctx, s.credential(1, IssuerA, 0)))

	s.Require().NoError(s.store.MarkRevoked(s.ctx, 1))
	s.Require().NoError(s.store.MarkRevoked(s.ctx, 1))

	got, err := s.store.FindCredential(s.ctx, 1)
	s.Require().NoError(err)
	s.True(got.Revoked)

	s.ErrorIs(s.store.MarkRevoked(s.ctx, 2), sentinel.ErrNotFound)
}

func (s *Suite) TestIssuerIndexPreservesOrder() {
	ids, err := s.store.ListByIssuer(s.ctx, IssuerA)
	s.Require().NoError(err)
	s.Empty(ids)

	issuers := []domain.Address{IssuerA, IssuerB, IssuerA, IssuerA, IssuerB}
	for i, issuer := range issuers {
		s.Require().NoError(s.store.InsertCredential(s.ctx, s.credential(uint64(i+1), issuer, 0)))
	}

	ids, err = s.store.ListByIssuer(s.ctx, IssuerA)
	s.Require().NoError(err)
	s.Equal([]models.CredentialID{1, 3, 4}, ids)

	ids, err = s.store.ListByIssuer(s.ctx, IssuerB)
	s.Require().NoError(err)
	s.Equal([]models.CredentialID{2, 5}, ids)
}

func (s *Suite) TestRunInTx() {
	err := s.store.RunInTx(s.ctx, func(tx service.Store) error {
		if err := tx.SetOwner(s.ctx, Owner); err != nil {
			return err
		}
		if err := tx.AddIssuers(s.ctx, IssuerA); err != nil {
			return err
		}
		count, err := tx.CredentialCount(s.ctx)
		if err != nil {
			return err
		}
		return tx.InsertCredential(s.ctx, s.credential(count+1, IssuerA, 0))
	})
	s.Require().NoError(err)

	owner, err := s.store.Owner(s.ctx)
	s.Require().NoError(err)
	s.Equal(Owner, owner)

	ids, err := s.store.ListByIssuer(s.ctx, IssuerA)
	s.Require().NoError(err)
	s.Equal([]models.CredentialID{1}, ids)
}

func (s *Suite) TestRunInTxPropagatesError() {
	boom := errors.New("boom")
	err := s.store.RunInTx(s.ctx, func(service.Store) error { return boom })
	s.ErrorIs(err, boom)
}

func (s *Suite) TestAddIssuersBatch() {
	s.Require().NoError(s.store.AddIssuers(s.ctx, IssuerA))
	s.Require().NoError(s.store.AddIssuers(s.ctx, IssuerA, IssuerB))
	s.Require().NoError(s.store.AddIssuers(s.ctx))

	for _, addr := range []domain.Address{IssuerA, IssuerB} {
		ok, err := s.store.IsIssuer(s.ctx, addr)
		s.Require().NoError(err)
		s.True(ok, addr.Hex())
	}
}

func (s *Suite) TestRunInTxRollsBackOnError() {
	boom := errors.New("boom")
	err := s.store.RunInTx(s.ctx, func(tx service.Store) error {
		if err := tx.SetOwner(s.ctx, Owner); err != nil {
			return err
		}
		if err := tx.AddIssuers(s.ctx, IssuerA, IssuerB); err != nil {
			return err
		}
		if err := tx.InsertCredential(s.ctx, s.credential(1, IssuerA, 0)); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	_, err = s.store.Owner(s.ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)

	for _, addr := range []domain.Address{IssuerA, IssuerB} {
		ok, err := s.store.IsIssuer(s.ctx, addr)
		s.Require().NoError(err)
		s.False(ok, "failed batch must leave %s unapproved", addr.Hex())
	}

	count, err := s.store.CredentialCount(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	ids, err := s.store.ListByIssuer(s.ctx, IssuerA)
	s.Require().NoError(err)
	s.Empty(ids)

	_, err = s.store.FindCredential(s.ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *Suite) TestRunInTxKeepsExistingIssuersOnError() {
	s.Require().NoError(s.store.AddIssuers(s.ctx, IssuerA))

	err := s.store.RunInTx(s.ctx, func(tx service.Store) error {
		if err := tx.AddIssuers(s.ctx, IssuerA, IssuerB); err != nil {
			return err
		}
		return errors.New("boom")
	})
	s.Require().Error(err)

	ok, err := s.store.IsIssuer(s.ctx, IssuerA)
	s.Require().NoError(err)
	s.True(ok, "issuer approved before the batch survives its rollback")

	ok, err = s.store.IsIssuer(s.ctx, IssuerB)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *Suite) TestRunInTxRollsBackRevocation() {
	s.Require().NoError(s.store.InsertCredential(s.ctx, s.credential(1, IssuerA, 0)))

	err := s.store.RunInTx(s.ctx, func(tx service.Store) error {
		if err := tx.MarkRevoked(s.ctx, 1); err != nil {
			return err
		}
		return errors.New("boom")
	})
	s.Require().Error(err)

	got, err := s.store.FindCredential(s.ctx, 1)
	s.Require().NoError(err)
	s.False(got.Revoked)
}
