package handler

import (
	"time"

	"credo/internal/registry/models"
	"credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	"credo/pkg/platform/audit"
)

func parseIdentity(field, raw string) (domain.Address, error) {
	addr, err := domain.ParseAddress(raw)
	if err != nil {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, field+" must be a 0x-prefixed 20 byte address")
	}
	return addr, nil
}

type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`

	newOwner domain.Address
}

func (r *TransferOwnershipRequest) Validate() (err error) {
	r.newOwner, err = parseIdentity("new_owner", r.NewOwner)
	return err
}

type AddIssuerRequest struct {
	Address string `json:"address"`

	address domain.Address
}

func (r *AddIssuerRequest) Validate() (err error) {
	r.address, err = parseIdentity("address", r.Address)
	return err
}

// maxBatchIssuers bounds a single batch approval.
const maxBatchIssuers = 256

type AddIssuersRequest struct {
	Addresses []string `json:"addresses"`

	addresses []domain.Address
}

func (r *AddIssuersRequest) Validate() error {
	if len(r.Addresses) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "addresses must not be empty")
	}
	if len(r.Addresses) > maxBatchIssuers {
		return dErrors.New(dErrors.CodeInvalidInput, "too many addresses in one batch")
	}
	r.addresses = make([]domain.Address, 0, len(r.Addresses))
	for _, raw := range r.Addresses {
		addr, err := parseIdentity("addresses", raw)
		if err != nil {
			return err
		}
		r.addresses = append(r.addresses, addr)
	}
	return nil
}

// IssueCredentialRequest issues a credential to Subject. ExpiresAt is unix
// seconds; omitted or zero means the credential never expires.
type IssueCredentialRequest struct {
	Subject   string `json:"subject"`
	IPFSHash  string `json:"ipfs_hash"`
	ExpiresAt *int64 `json:"expires_at,omitempty"`

	subject domain.Address
}

func (r *IssueCredentialRequest) Validate() (err error) {
	if r.subject, err = parseIdentity("subject", r.Subject); err != nil {
		return err
	}
	if r.ExpiresAt != nil && *r.ExpiresAt < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "expires_at must not be negative")
	}
	return nil
}

type OwnerResponse struct {
	Owner     domain.Address `json:"owner"`
	Renounced bool           `json:"renounced"`
}

type IssuerResponse struct {
	Address  domain.Address `json:"address"`
	Approved bool           `json:"approved"`
}

type IssueCredentialResponse struct {
	ID models.CredentialID `json:"id"`
}

type CredentialResponse struct {
	ID        models.CredentialID `json:"id"`
	Issuer    domain.Address      `json:"issuer"`
	Subject   domain.Address      `json:"subject"`
	IPFSHash  string              `json:"ipfs_hash"`
	IssuedAt  int64               `json:"issued_at"`
	ExpiresAt int64               `json:"expires_at"`
	Revoked   bool                `json:"revoked"`
	Status    models.Status       `json:"status"`
}

func toCredentialResponse(c *models.Credential, status models.Status) *CredentialResponse {
	return &CredentialResponse{
		ID:        c.ID,
		Issuer:    c.Issuer,
		Subject:   c.Subject,
		IPFSHash:  c.IPFSHash,
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
		Revoked:   c.Revoked,
		Status:    status,
	}
}

type ValidityResponse struct {
	ID    models.CredentialID `json:"id"`
	Valid bool                `json:"valid"`
}

type CredentialListResponse struct {
	Issuer      domain.Address        `json:"issuer"`
	Credentials []models.CredentialID `json:"credentials"`
}

type CountResponse struct {
	Total uint64 `json:"total"`
}

type EventResponse struct {
	ID           string         `json:"id"`
	Category     string         `json:"category"`
	Action       string         `json:"action"`
	Timestamp    time.Time      `json:"timestamp"`
	Actor        domain.Address `json:"actor"`
	Target       domain.Address `json:"target"`
	CredentialID uint64         `json:"credential_id,omitempty"`
	IPFSHash     string         `json:"ipfs_hash,omitempty"`
	ExpiresAt    int64          `json:"expires_at,omitempty"`
}

type EventListResponse struct {
	Address domain.Address  `json:"address"`
	Events  []EventResponse `json:"events"`
}

func toEventListResponse(addr domain.Address, events []audit.Event) *EventListResponse {
	resp := &EventListResponse{Address: addr, Events: make([]EventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, EventResponse{
			ID:           e.ID.String(),
			Category:     string(e.Category),
			Action:       e.Action,
			Timestamp:    e.Timestamp.UTC(),
			Actor:        e.Actor,
			Target:       e.Target,
			CredentialID: e.CredentialID,
			IPFSHash:     e.IPFSHash,
			ExpiresAt:    e.ExpiresAt,
		})
	}
	return resp
}
