package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credo/internal/registry/models"
	"credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	"credo/pkg/platform/audit"
	"credo/pkg/platform/httputil"
	auth "credo/pkg/platform/middleware/auth"
	request "credo/pkg/platform/middleware/request"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service EventReader

// Service is the registry surface the handler exposes.
type Service interface {
	Owner(ctx context.Context) (domain.Address, error)
	TransferOwnership(ctx context.Context, caller, newOwner domain.Address) error
	RenounceOwnership(ctx context.Context, caller domain.Address) error
	AddIssuer(ctx context.Context, caller, identity domain.Address) error
	AddIssuers(ctx context.Context, caller domain.Address, identities []domain.Address) error
	IsApprovedIssuer(ctx context.Context, identity domain.Address) (bool, error)
	IssueCredential(ctx context.Context, caller, subject domain.Address, ipfsHash string) (models.CredentialID, error)
	IssueCredentialWithExpiry(ctx context.Context, caller, subject domain.Address, ipfsHash string, expiresAt int64) (models.CredentialID, error)
	RevokeCredential(ctx context.Context, caller domain.Address, id models.CredentialID) error
	VerifyCredentialStatus(ctx context.Context, id models.CredentialID) (*models.Credential, models.Status, error)
	IsCredentialValid(ctx context.Context, id models.CredentialID) (bool, error)
	GetCredentialsByIssuer(ctx context.Context, issuer domain.Address) ([]models.CredentialID, error)
	GetTotalCredentials(ctx context.Context) (uint64, error)
}

// EventReader lists recorded registry events involving an address.
type EventReader interface {
	List(ctx context.Context, addr domain.Address) ([]audit.Event, error)
}

// Handler serves the registry HTTP API.
type Handler struct {
	logger    *slog.Logger
	registry  Service
	events    EventReader
	validator auth.TokenValidator
	// mutating routes are wrapped with these after authentication, e.g. rate limiting
	mutationMiddleware []func(http.Handler) http.Handler
	timeout            time.Duration
}

type Option func(*Handler)

// WithEventReader enables GET /registry/events.
func WithEventReader(events EventReader) Option {
	return func(h *Handler) {
		h.events = events
	}
}

// WithMutationMiddleware appends middleware applied to authenticated routes.
func WithMutationMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.mutationMiddleware = append(h.mutationMiddleware, mw...)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

func New(registry Service, validator auth.TokenValidator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		logger:    logger,
		registry:  registry,
		validator: validator,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the registry routes under /registry.
func (h *Handler) Register(r chi.Router) {
	registryRouter := chi.NewRouter()
	registryRouter.Use(request.Timeout(h.timeout))
	registryRouter.Use(request.ContentTypeJSON)

	registryRouter.Get("/owner", h.handleGetOwner)
	registryRouter.Get("/issuers/{address}", h.handleIsApprovedIssuer)
	registryRouter.Get("/issuers/{address}/credentials", h.handleCredentialsByIssuer)
	registryRouter.Get("/credentials/count", h.handleTotalCredentials)
	registryRouter.Get("/credentials/{id}", h.handleVerifyCredential)
	registryRouter.Get("/credentials/{id}/valid", h.handleIsCredentialValid)
	registryRouter.Get("/events", h.handleListEvents)

	registryRouter.Group(func(r chi.Router) {
		r.Use(auth.RequireCaller(h.validator, h.logger))
		r.Use(h.mutationMiddleware...)
		r.Post("/owner/transfer", h.handleTransferOwnership)
		r.Post("/owner/renounce", h.handleRenounceOwnership)
		r.Post("/issuers", h.handleAddIssuer)
		r.Post("/issuers/batch", h.handleAddIssuers)
		r.Post("/credentials", h.handleIssueCredential)
		r.Post("/credentials/{id}/revoke", h.handleRevokeCredential)
	})

	r.Mount("/registry", registryRouter)
}

func (h *Handler) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := h.registry.Owner(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "get owner", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &OwnerResponse{Owner: owner, Renounced: owner.IsZero()})
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferOwnershipRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	if err := h.registry.TransferOwnership(ctx, caller, req.newOwner); err != nil {
		h.writeServiceError(ctx, w, "transfer ownership", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRenounceOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}
	if err := h.registry.RenounceOwnership(ctx, caller); err != nil {
		h.writeServiceError(ctx, w, "renounce ownership", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddIssuerRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	if err := h.registry.AddIssuer(ctx, caller, req.address); err != nil {
		h.writeServiceError(ctx, w, "add issuer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddIssuers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddIssuersRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	if err := h.registry.AddIssuers(ctx, caller, req.addresses); err != nil {
		h.writeServiceError(ctx, w, "add issuers", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleIsApprovedIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(ctx, w, r)
	if !ok {
		return
	}
	approved, err := h.registry.IsApprovedIssuer(ctx, addr)
	if err != nil {
		h.writeServiceError(ctx, w, "check issuer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &IssuerResponse{Address: addr, Approved: approved})
}

func (h *Handler) handleCredentialsByIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.addressParam(ctx, w, r)
	if !ok {
		return
	}
	ids, err := h.registry.GetCredentialsByIssuer(ctx, addr)
	if err != nil {
		h.writeServiceError(ctx, w, "list credentials by issuer", err)
		return
	}
	if ids == nil {
		ids = []models.CredentialID{}
	}
	httputil.WriteJSON(w, http.StatusOK, &CredentialListResponse{Issuer: addr, Credentials: ids})
}

func (h *Handler) handleIssueCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[IssueCredentialRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	var (
		id  models.CredentialID
		err error
	)
	if req.ExpiresAt != nil {
		id, err = h.registry.IssueCredentialWithExpiry(ctx, caller, req.subject, req.IPFSHash, *req.ExpiresAt)
	} else {
		id, err = h.registry.IssueCredential(ctx, caller, req.subject, req.IPFSHash)
	}
	if err != nil {
		h.writeServiceError(ctx, w, "issue credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &IssueCredentialResponse{ID: id})
}

func (h *Handler) handleRevokeCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}
	id, ok := h.idParam(ctx, w, r)
	if !ok {
		return
	}
	if err := h.registry.RevokeCredential(ctx, caller, id); err != nil {
		h.writeServiceError(ctx, w, "revoke credential", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTotalCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.registry.GetTotalCredentials(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "count credentials", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &CountResponse{Total: total})
}

func (h *Handler) handleVerifyCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.idParam(ctx, w, r)
	if !ok {
		return
	}
	credential, status, err := h.registry.VerifyCredentialStatus(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "verify credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(credential, status))
}

func (h *Handler) handleIsCredentialValid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.idParam(ctx, w, r)
	if !ok {
		return
	}
	valid, err := h.registry.IsCredentialValid(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "check credential validity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ValidityResponse{ID: id, Valid: valid})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.events == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "event history is not enabled"))
		return
	}
	addr, err := parseIdentity("address", r.URL.Query().Get("address"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid events query",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	events, err := h.events.List(ctx, addr)
	if err != nil {
		h.writeServiceError(ctx, w, "list events", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventListResponse(addr, events))
}

// caller returns the authenticated caller. RequireCaller guarantees it is set;
// a missing caller is a wiring error.
func (h *Handler) caller(ctx context.Context, w http.ResponseWriter) (domain.Address, bool) {
	caller, ok := auth.GetCaller(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.ZeroAddress, false
	}
	return caller, true
}

func (h *Handler) addressParam(ctx context.Context, w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	addr, err := parseIdentity("address", chi.URLParam(r, "address"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid address parameter",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return domain.ZeroAddress, false
	}
	return addr, true
}

func (h *Handler) idParam(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.CredentialID, bool) {
	id, err := models.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid credential id parameter",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	requestID := request.GetRequestID(ctx)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", requestID,
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, op+" rejected",
			"request_id", requestID,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
