package memory

import (
	"context"
	"fmt"
	"sync"

	"credo/internal/registry/models"
	"credo/internal/registry/service"
	"credo/pkg/domain"
	"credo/pkg/platform/sentinel"
)

// InMemoryStore keeps registry state in maps guarded by a mutex.
//
// Writes made through RunInTx are journaled and undone in reverse order when
// the callback fails.
type InMemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	owner       domain.Address
	issuers     map[domain.Address]struct{}
	credentials []models.Credential
	byIssuer    map[domain.Address][]models.CredentialID
}

func New() *InMemoryStore {
	return &InMemoryStore{
		issuers:  make(map[domain.Address]struct{}),
		byIssuer: make(map[domain.Address][]models.CredentialID),
	}
}

func (s *InMemoryStore) Owner(_ context.Context) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return domain.ZeroAddress, sentinel.ErrNotFound
	}
	return s.owner, nil
}

func (s *InMemoryStore) SetOwner(_ context.Context, owner domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setOwner(owner)
	return nil
}

func (s *InMemoryStore) IsIssuer(_ context.Context, addr domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.issuers[addr]
	return ok, nil
}

func (s *InMemoryStore) AddIssuers(_ context.Context, addrs ...domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addIssuers(addrs)
	return nil
}

func (s *InMemoryStore) CredentialCount(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.credentials)), nil
}

func (s *InMemoryStore) InsertCredential(_ context.Context, c *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.insertCredential(c)
	return err
}

func (s *InMemoryStore) FindCredential(_ context.Context, id models.CredentialID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists(id) {
		return nil, sentinel.ErrNotFound
	}
	c := s.credentials[id-1]
	return &c, nil
}

func (s *InMemoryStore) MarkRevoked(_ context.Context, id models.CredentialID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.markRevoked(id)
	return err
}

func (s *InMemoryStore) ListByIssuer(_ context.Context, issuer domain.Address) ([]models.CredentialID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CredentialID{}, s.byIssuer[issuer]...), nil
}

func (s *InMemoryStore) RunInTx(_ context.Context, fn func(store service.Store) error) error {
	tx := &txStore{InMemoryStore: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *InMemoryStore) exists(id models.CredentialID) bool {
	return id != 0 && uint64(id) <= uint64(len(s.credentials))
}

// The helpers below expect s.mu to be held and return a func that reverts
// their write.

func (s *InMemoryStore) setOwner(owner domain.Address) func() {
	prevOwner, prevInitialized := s.owner, s.initialized
	s.owner = owner
	s.initialized = true
	return func() {
		s.owner, s.initialized = prevOwner, prevInitialized
	}
}

func (s *InMemoryStore) addIssuers(addrs []domain.Address) func() {
	var added []domain.Address
	for _, addr := range addrs {
		if _, ok := s.issuers[addr]; ok {
			continue
		}
		s.issuers[addr] = struct{}{}
		added = append(added, addr)
	}
	return func() {
		for _, addr := range added {
			delete(s.issuers, addr)
		}
	}
}

func (s *InMemoryStore) insertCredential(c *models.Credential) (func(), error) {
	next := models.CredentialID(len(s.credentials) + 1)
	if c.ID != next {
		return nil, fmt.Errorf("insert credential %d, expected %d: %w", c.ID, next, sentinel.ErrConflict)
	}
	s.credentials = append(s.credentials, *c)
	s.byIssuer[c.Issuer] = append(s.byIssuer[c.Issuer], c.ID)

	issuer := c.Issuer
	return func() {
		s.credentials = s.credentials[:len(s.credentials)-1]
		ids := s.byIssuer[issuer][:len(s.byIssuer[issuer])-1]
		if len(ids) == 0 {
			delete(s.byIssuer, issuer)
			return
		}
		s.byIssuer[issuer] = ids
	}, nil
}

func (s *InMemoryStore) markRevoked(id models.CredentialID) (func(), error) {
	if !s.exists(id) {
		return nil, sentinel.ErrNotFound
	}
	prev := s.credentials[id-1].Revoked
	s.credentials[id-1].Revoked = true
	return func() {
		if s.exists(id) {
			s.credentials[id-1].Revoked = prev
		}
	}, nil
}

// txStore routes writes through the journal. Reads fall through to the
// embedded store and see writes already made in the transaction.
type txStore struct {
	*InMemoryStore
	undo []func()
}

func (t *txStore) SetOwner(_ context.Context, owner domain.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undo = append(t.undo, t.setOwner(owner))
	return nil
}

func (t *txStore) AddIssuers(_ context.Context, addrs ...domain.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undo = append(t.undo, t.addIssuers(addrs))
	return nil
}

func (t *txStore) InsertCredential(_ context.Context, c *models.Credential) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	undo, err := t.insertCredential(c)
	if err != nil {
		return err
	}
	t.undo = append(t.undo, undo)
	return nil
}

func (t *txStore) MarkRevoked(_ context.Context, id models.CredentialID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	undo, err := t.markRevoked(id)
	if err != nil {
		return err
	}
	t.undo = append(t.undo, undo)
	return nil
}

// RunInTx joins the enclosing transaction.
func (t *txStore) RunInTx(_ context.Context, fn func(store service.Store) error) error {
	return fn(t)
}

func (t *txStore) rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}
