package models

import (
	"strconv"
	"strings"
	"time"

	"credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
)

// CredentialID is the registry-assigned credential number. Valid ids are 1..N
// where N is the total issued; 0 never names a credential.
type CredentialID uint64

func (id CredentialID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseCredentialID parses a decimal id. Zero parses successfully; range checks
// belong to the registry, which reports it as not found.
func ParseCredentialID(s string) (CredentialID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "credential id must be a non-negative integer")
	}
	return CredentialID(v), nil
}

// NeverExpires is the ExpiresAt sentinel for credentials without expiry.
const NeverExpires int64 = 0

// Credential is a registry record binding a subject to off-registry content.
//
// Invariants:
//   - ID is positive and unique
//   - Issuer was an approved issuer when the record was created
//   - Only Revoked changes after creation, and only from false to true
//   - ExpiresAt == NeverExpires means the credential never expires
//
// Timestamps are unix seconds.
type Credential struct {
	ID        CredentialID   `json:"id"`
	Issuer    domain.Address `json:"issuer"`
	Subject   domain.Address `json:"subject"`
	IPFSHash  string         `json:"ipfs_hash"`
	IssuedAt  int64          `json:"issued_at"`
	ExpiresAt int64          `json:"expires_at"`
	Revoked   bool           `json:"revoked"`
}

// NewCredential builds an unrevoked credential. The subject and content hash are
// stored verbatim; an expiry at or before issuedAt is accepted and simply yields a
// credential that is already expired.
func NewCredential(id CredentialID, issuer, subject domain.Address, ipfsHash string, issuedAt time.Time, expiresAt int64) (*Credential, error) {
	if id == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "credential id must be positive")
	}
	if expiresAt < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expiry must not be negative")
	}
	return &Credential{
		ID:        id,
		Issuer:    issuer,
		Subject:   subject,
		IPFSHash:  ipfsHash,
		IssuedAt:  issuedAt.Unix(),
		ExpiresAt: expiresAt,
	}, nil
}

// Expires reports whether the credential carries an expiry.
func (c *Credential) Expires() bool {
	return c.ExpiresAt != NeverExpires
}

// IsExpiredAt reports whether the expiry has been reached at now.
func (c *Credential) IsExpiredAt(now time.Time) bool {
	return c.Expires() && c.ExpiresAt <= now.Unix()
}

// IsValidAt reports whether the credential is unrevoked and unexpired at now.
func (c *Credential) IsValidAt(now time.Time) bool {
	return !c.Revoked && !c.IsExpiredAt(now)
}

// StatusAt derives the lifecycle state at now. Revoked wins over Expired.
func (c *Credential) StatusAt(now time.Time) Status {
	switch {
	case c.Revoked:
		return StatusRevoked
	case c.IsExpiredAt(now):
		return StatusExpired
	default:
		return StatusActive
	}
}

// IssuedTime returns IssuedAt as a time.Time.
func (c *Credential) IssuedTime() time.Time {
	return time.Unix(c.IssuedAt, 0).UTC()
}

// ExpiryTime returns the expiry and whether one is set.
func (c *Credential) ExpiryTime() (time.Time, bool) {
	if !c.Expires() {
		return time.Time{}, false
	}
	return time.Unix(c.ExpiresAt, 0).UTC(), true
}

// Status is the derived lifecycle state of a credential. It is never stored.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)
