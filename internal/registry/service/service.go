package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credo/internal/registry/metrics"
	"credo/internal/registry/models"
	"credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	audit "credo/pkg/platform/audit"
	"credo/pkg/platform/sentinel"
	"credo/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store AuditPublisher

// Store holds registry state. Implementations return sentinel.ErrNotFound for
// missing records and sentinel.ErrConflict when an insert does not continue
// the id sequence.
type Store interface {
	// Owner returns the current owner, the zero address once renounced, or
	// sentinel.ErrNotFound if the registry was never initialized.
	Owner(ctx context.Context) (domain.Address, error)
	SetOwner(ctx context.Context, owner domain.Address) error
	IsIssuer(ctx context.Context, addr domain.Address) (bool, error)
	// AddIssuers approves every address in one write.
	AddIssuers(ctx context.Context, addrs ...domain.Address) error
	CredentialCount(ctx context.Context) (uint64, error)
	// InsertCredential stores c and appends its id to the issuer index.
	// c.ID must equal CredentialCount()+1.
	InsertCredential(ctx context.Context, c *models.Credential) error
	FindCredential(ctx context.Context, id models.CredentialID) (*models.Credential, error)
	MarkRevoked(ctx context.Context, id models.CredentialID) error
	ListByIssuer(ctx context.Context, issuer domain.Address) ([]models.CredentialID, error)
	// RunInTx applies fn atomically: if fn returns an error none of its writes
	// are visible. The store passed to fn must be used for every write inside
	// the transaction. Reads inside fn may not observe fn's own writes.
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the credential registry. Mutations run one at a time under mu and
// each applies its writes in a single store transaction after all checks pass,
// so a failed call leaves no trace. Queries share the read lock.
type Service struct {
	store          Store
	mu             sync.RWMutex
	now            func() time.Time
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for issuance and validity checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		tracer: otel.Tracer("credo/internal/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize sets the first owner on a registry that has never been
// initialized and returns the effective owner. An initialized registry,
// including a renounced one, is left as is.
func (s *Service) Initialize(ctx context.Context, deployer domain.Address) (owner domain.Address, err error) {
	ctx, done := s.begin(ctx, "initialize")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Owner(ctx)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return domain.ZeroAddress, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owner")
	}
	if deployer.IsZero() {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "initial owner must not be the zero address")
	}

	err = s.store.RunInTx(ctx, func(tx Store) error {
		return tx.SetOwner(ctx, deployer)
	})
	if err != nil {
		return domain.ZeroAddress, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize registry")
	}

	s.emit(ctx, audit.EventOwnershipTransferred, audit.Event{Actor: domain.ZeroAddress, Target: deployer})
	s.incrementOwnershipTransfers()
	return deployer, nil
}

// Owner returns the current owner, or the zero address when there is none.
func (s *Service) Owner(ctx context.Context) (owner domain.Address, err error) {
	ctx, done := s.begin(ctx, "owner")
	defer func() { done(err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentOwner(ctx)
}

func (s *Service) TransferOwnership(ctx context.Context, caller, newOwner domain.Address) (err error) {
	ctx, done := s.begin(ctx, "transfer_ownership")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, caller, "transfer_ownership"); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "new owner is the zero address")
	}

	if err := s.store.RunInTx(ctx, func(tx Store) error {
		return tx.SetOwner(ctx, newOwner)
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer ownership")
	}

	s.emit(ctx, audit.EventOwnershipTransferred, audit.Event{Actor: caller, Target: newOwner})
	s.incrementOwnershipTransfers()
	return nil
}

// RenounceOwnership leaves the registry without an owner. Owner-gated
// operations fail permanently afterwards.
func (s *Service) RenounceOwnership(ctx context.Context, caller domain.Address) (err error) {
	ctx, done := s.begin(ctx, "renounce_ownership")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, caller, "renounce_ownership"); err != nil {
		return err
	}
	if err := s.store.RunInTx(ctx, func(tx Store) error {
		return tx.SetOwner(ctx, domain.ZeroAddress)
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to renounce ownership")
	}

	s.emit(ctx, audit.EventOwnershipTransferred, audit.Event{Actor: caller, Target: domain.ZeroAddress})
	s.incrementOwnershipTransfers()
	return nil
}

// AddIssuer approves identity as an issuer. Adding an existing issuer succeeds.
func (s *Service) AddIssuer(ctx context.Context, caller, identity domain.Address) (err error) {
	return s.AddIssuers(ctx, caller, []domain.Address{identity})
}

// AddIssuers approves every identity in the list. The owner check runs once;
// either all identities are added or none are.
func (s *Service) AddIssuers(ctx context.Context, caller domain.Address, identities []domain.Address) (err error) {
	ctx, done := s.begin(ctx, "add_issuers")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOwner(ctx, caller, "add_issuers"); err != nil {
		return err
	}
	if err := s.store.RunInTx(ctx, func(tx Store) error {
		return tx.AddIssuers(ctx, identities...)
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add issuers")
	}

	for _, identity := range identities {
		s.emit(ctx, audit.EventIssuerAdded, audit.Event{Actor: caller, Target: identity})
		if s.metrics != nil {
			s.metrics.IssuersAdded.Inc()
		}
	}
	return nil
}

func (s *Service) IsApprovedIssuer(ctx context.Context, identity domain.Address) (ok bool, err error) {
	ctx, done := s.begin(ctx, "is_approved_issuer")
	defer func() { done(err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ok, err = s.store.IsIssuer(ctx, identity)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuer")
	}
	return ok, nil
}

// IssueCredential records a credential that never expires.
func (s *Service) IssueCredential(ctx context.Context, caller, subject domain.Address, ipfsHash string) (models.CredentialID, error) {
	return s.issue(ctx, caller, subject, ipfsHash, models.NeverExpires)
}

// IssueCredentialWithExpiry records a credential expiring at expiresAt (unix
// seconds). Zero means never; a time in the past is accepted.
func (s *Service) IssueCredentialWithExpiry(ctx context.Context, caller, subject domain.Address, ipfsHash string, expiresAt int64) (models.CredentialID, error) {
	return s.issue(ctx, caller, subject, ipfsHash, expiresAt)
}

func (s *Service) issue(ctx context.Context, caller, subject domain.Address, ipfsHash string, expiresAt int64) (id models.CredentialID, err error) {
	ctx, done := s.begin(ctx, "issue_credential")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	approved, err := s.store.IsIssuer(ctx, caller)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuer")
	}
	if !approved {
		s.incrementUnauthorized("issue_credential")
		return 0, dErrors.New(dErrors.CodeUnauthorized, "caller is not an approved issuer")
	}

	var credential *models.Credential
	err = s.store.RunInTx(ctx, func(tx Store) error {
		count, err := tx.CredentialCount(ctx)
		if err != nil {
			return err
		}
		credential, err = models.NewCredential(models.CredentialID(count+1), caller, subject, ipfsHash, s.now(), expiresAt)
		if err != nil {
			return err
		}
		return tx.InsertCredential(ctx, credential)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return 0, err
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue credential")
	}

	s.emit(ctx, audit.EventCredentialIssued, audit.Event{
		Actor:        caller,
		Target:       subject,
		CredentialID: uint64(credential.ID),
		IPFSHash:     ipfsHash,
		ExpiresAt:    expiresAt,
	})
	if s.metrics != nil {
		s.metrics.CredentialsIssued.Inc()
	}
	return credential.ID, nil
}

// RevokeCredential marks a credential revoked. Only its issuer may revoke it;
// the owner has no override. Revoking twice succeeds.
func (s *Service) RevokeCredential(ctx context.Context, caller domain.Address, id models.CredentialID) (err error) {
	ctx, done := s.begin(ctx, "revoke_credential")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	credential, err := s.findCredential(ctx, id)
	if err != nil {
		return err
	}
	if credential.Issuer != caller {
		s.incrementUnauthorized("revoke_credential")
		return dErrors.New(dErrors.CodeUnauthorized, "only the issuer can revoke this credential")
	}

	if err := s.store.RunInTx(ctx, func(tx Store) error {
		return tx.MarkRevoked(ctx, id)
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}

	s.emit(ctx, audit.EventCredentialRevoked, audit.Event{
		Actor:        caller,
		Target:       credential.Subject,
		CredentialID: uint64(id),
	})
	if s.metrics != nil {
		s.metrics.CredentialsRevoked.Inc()
	}
	return nil
}

// VerifyCredential returns the full record.
func (s *Service) VerifyCredential(ctx context.Context, id models.CredentialID) (credential *models.Credential, err error) {
	ctx, done := s.begin(ctx, "verify_credential")
	defer func() { done(err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findCredential(ctx, id)
}

// VerifyCredentialStatus returns the record together with its lifecycle state,
// both read under one lock against one clock reading.
func (s *Service) VerifyCredentialStatus(ctx context.Context, id models.CredentialID) (credential *models.Credential, status models.Status, err error) {
	ctx, done := s.begin(ctx, "verify_credential_status")
	defer func() { done(err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	credential, err = s.findCredential(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return credential, credential.StatusAt(s.now()), nil
}

// IsCredentialValid reports whether id names an unrevoked, unexpired
// credential. Unknown ids are invalid, not an error.
func (s *Service) IsCredentialValid(ctx context.Context, id models.CredentialID) (valid bool, err error) {
	ctx, done := s.begin(ctx, "is_credential_valid")
	defer func() { done(err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	credential, err := s.findCredential(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return credential.IsValidAt(s.now()), nil
}

// CredentialStatus derives the lifecycle state at the current time.
func (s *Service) CredentialStatus(ctx context.Context, id models.CredentialID) (status models.Status, err error) {
	ctx, done := s.begin(ctx, "credential_status")
	defer func() { done(err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	credential, err := s.findCredential(ctx, id)
	if err != nil {
		return "", err
	}
	return credential.StatusAt(s.now()), nil
}

// GetCredentialsByIssuer returns the ids issuer has issued, in issuance order.
func (s *Service) GetCredentialsByIssuer(ctx context.Context, issuer domain.Address) (ids []models.CredentialID, err error) {
	ctx, done := s.begin(ctx, "get_credentials_by_issuer")
	defer func() { done(err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err = s.store.ListByIssuer(ctx, issuer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	if ids == nil {
		ids = []models.CredentialID{}
	}
	return ids, nil
}

func (s *Service) GetTotalCredentials(ctx context.Context) (total uint64, err error) {
	ctx, done := s.begin(ctx, "get_total_credentials")
	defer func() { done(err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	total, err = s.store.CredentialCount(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count credentials")
	}
	return total, nil
}

func (s *Service) findCredential(ctx context.Context, id models.CredentialID) (*models.Credential, error) {
	if id == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	credential, err := s.store.FindCredential(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}
	return credential, nil
}

func (s *Service) currentOwner(ctx context.Context) (domain.Address, error) {
	owner, err := s.store.Owner(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.ZeroAddress, nil
		}
		return domain.ZeroAddress, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owner")
	}
	return owner, nil
}

// requireOwner fails unless the registry has an owner and caller is it. The
// zero check comes first so a zero caller never matches a renounced owner.
func (s *Service) requireOwner(ctx context.Context, caller domain.Address, operation string) error {
	owner, err := s.currentOwner(ctx)
	if err != nil {
		return err
	}
	if owner.IsZero() || caller != owner {
		s.incrementUnauthorized(operation)
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}

// begin opens a span for operation and returns a func that closes it and
// records the duration.
func (s *Service) begin(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry."+operation,
		trace.WithAttributes(attribute.String("registry.operation", operation)))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(operation, start)
		}
	}
}

// emit logs the event as an audit line and hands it to the publisher. Publish
// failures never fail the committed mutation.
func (s *Service) emit(ctx context.Context, event audit.RegistryEvent, e audit.Event) {
	e.Action = string(event)
	e.Category = event.Category()
	e.RequestID = requestcontext.RequestID(ctx)
	e.Client = requestcontext.ClientDevice(ctx)

	if s.logger != nil {
		args := []any{
			"event", string(event),
			"log_type", "audit",
			"actor", e.Actor.String(),
			"target", e.Target.String(),
		}
		if e.CredentialID != 0 {
			args = append(args, "credential_id", e.CredentialID)
		}
		if e.RequestID != "" {
			args = append(args, "request_id", e.RequestID)
		}
		if e.Client != "" {
			args = append(args, "client", e.Client)
		}
		s.logger.InfoContext(ctx, string(event), args...)
	}

	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to publish registry event",
				"event", string(event),
				"error", err,
			)
		}
		if s.metrics != nil {
			s.metrics.EventPublishFailures.Inc()
		}
	}
}

func (s *Service) incrementUnauthorized(operation string) {
	if s.metrics != nil {
		s.metrics.IncrementUnauthorized(operation)
	}
}

func (s *Service) incrementOwnershipTransfers() {
	if s.metrics != nil {
		s.metrics.OwnershipTransfers.Inc()
	}
}
