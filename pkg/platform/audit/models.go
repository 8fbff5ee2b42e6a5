package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"credo/pkg/domain"
)

// EventCategory classifies registry events by what they change.
type EventCategory string

const (
	// CategoryGovernance covers owner and issuer-set changes.
	CategoryGovernance EventCategory = "governance"

	// CategoryCredential covers credential issuance and revocation.
	CategoryCredential EventCategory = "credential"
)

// Event is emitted after a registry mutation commits. It mirrors the events a
// client would index to follow registry state without polling.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// Actor is the caller that performed the mutation. For ownership transfers
	// it is the previous owner.
	Actor domain.Address
	// Target is the identity the mutation is about: the new owner, the added
	// issuer, or the credential subject.
	Target       domain.Address
	CredentialID uint64
	IPFSHash     string
	ExpiresAt    int64
	RequestID    string
	// Client is the device label of the request that caused the event.
	Client string
}

// Involves reports whether addr is the actor or the target of the event.
func (e Event) Involves(addr domain.Address) bool {
	return e.Actor == addr || e.Target == addr
}

type RegistryEvent string

const (
	EventOwnershipTransferred RegistryEvent = "ownership_transferred"
	EventIssuerAdded          RegistryEvent = "issuer_added"
	EventCredentialIssued     RegistryEvent = "credential_issued"
	EventCredentialRevoked    RegistryEvent = "credential_revoked"
)

var eventCategories = map[RegistryEvent]EventCategory{
	EventOwnershipTransferred: CategoryGovernance,
	EventIssuerAdded:          CategoryGovernance,
	EventCredentialIssued:     CategoryCredential,
	EventCredentialRevoked:    CategoryCredential,
}

// Category returns the EventCategory for this event.
// Unknown events default to CategoryGovernance.
func (e RegistryEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryGovernance
}

// Store persists events. Sinks that cannot be queried (Kafka) only implement this.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader lists recorded events involving an address, oldest first.
type Reader interface {
	ListByAddress(ctx context.Context, addr domain.Address) ([]Event, error)
}

// ErrNotQueryable is returned when no configured store can list events.
var ErrNotQueryable = errors.New("audit store does not support queries")

// Tee returns a Store that appends to every store in order and stops at the first
// error.
func Tee(stores ...Store) Store {
	return teeStore(stores)
}

type teeStore []Store

func (t teeStore) Append(ctx context.Context, event Event) error {
	for _, s := range t {
		if err := s.Append(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// ListByAddress reads from the first store that implements Reader.
func (t teeStore) ListByAddress(ctx context.Context, addr domain.Address) ([]Event, error) {
	for _, s := range t {
		if r, ok := s.(Reader); ok {
			return r.ListByAddress(ctx, addr)
		}
	}
	return nil, ErrNotQueryable
}
