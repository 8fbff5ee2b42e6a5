package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"credo/pkg/domain"
	audit "credo/pkg/platform/audit"
)

// Schema creates the registry_events table. Event ids are unique so replays
// of the same event are ignored.
const Schema = `
CREATE TABLE IF NOT EXISTS registry_events (
	seq           BIGSERIAL PRIMARY KEY,
	id            UUID NOT NULL UNIQUE,
	category      TEXT NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	action        TEXT NOT NULL,
	actor         BYTEA NOT NULL,
	target        BYTEA NOT NULL,
	credential_id BIGINT NOT NULL DEFAULT 0,
	ipfs_hash     TEXT NOT NULL DEFAULT '',
	expires_at    BIGINT NOT NULL DEFAULT 0,
	request_id    TEXT NOT NULL DEFAULT '',
	client        TEXT NOT NULL DEFAULT ''
);
ALTER TABLE registry_events ADD COLUMN IF NOT EXISTS client TEXT NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS registry_events_actor_idx ON registry_events (actor, seq);
CREATE INDEX IF NOT EXISTS registry_events_target_idx ON registry_events (target, seq);
`

// Store implements audit.Store and audit.Reader on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate registry_events: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	category := audit.RegistryEvent(event.Action).Category()

	query := `
		INSERT INTO registry_events (
			id, category, occurred_at, action, actor, target,
			credential_id, ipfs_hash, expires_at, request_id, client
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(category),
		event.Timestamp,
		event.Action,
		event.Actor.Bytes(),
		event.Target.Bytes(),
		int64(event.CredentialID),
		event.IPFSHash,
		event.ExpiresAt,
		event.RequestID,
		event.Client,
	)
	if err != nil {
		return fmt.Errorf("insert registry event: %w", err)
	}
	return nil
}

// ListByAddress returns events where addr is the actor or the target, oldest first.
func (s *Store) ListByAddress(ctx context.Context, addr domain.Address) ([]audit.Event, error) {
	query := `
		SELECT id, category, occurred_at, action, actor, target,
			   credential_id, ipfs_hash, expires_at, request_id, client
		FROM registry_events
		WHERE actor = $1 OR target = $1
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, addr.Bytes())
	if err != nil {
		return nil, fmt.Errorf("query registry events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	events := []audit.Event{}
	for rows.Next() {
		var (
			event         audit.Event
			category      string
			actor, target []byte
			credentialID  int64
		)
		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&event.Action,
			&actor,
			&target,
			&credentialID,
			&event.IPFSHash,
			&event.ExpiresAt,
			&event.RequestID,
			&event.Client,
		)
		if err != nil {
			return nil, fmt.Errorf("scan registry event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.CredentialID = uint64(credentialID)
		if event.Actor, err = domain.AddressFromBytes(actor); err != nil {
			return nil, fmt.Errorf("scan registry event actor: %w", err)
		}
		if event.Target, err = domain.AddressFromBytes(target); err != nil {
			return nil, fmt.Errorf("scan registry event target: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registry events: %w", err)
	}
	return events, nil
}
