package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"credo/internal/registry/models"
	"credo/internal/registry/service"
	"credo/pkg/domain"
	"credo/pkg/platform/sentinel"
)

// Schema creates the registry tables. registry_meta holds a single row that
// exists once the registry has been initialized.
const Schema = `
CREATE TABLE IF NOT EXISTS registry_meta (
	id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	owner      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS registry_issuers (
	address  BYTEA PRIMARY KEY,
	added_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS registry_credentials (
	id         BIGINT PRIMARY KEY CHECK (id > 0),
	issuer     BYTEA NOT NULL,
	subject    BYTEA NOT NULL,
	ipfs_hash  TEXT NOT NULL,
	issued_at  BIGINT NOT NULL,
	expires_at BIGINT NOT NULL DEFAULT 0,
	revoked    BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS registry_credentials_issuer_idx ON registry_credentials (issuer, id);
`

const uniqueViolation = "23505"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists registry state in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	q  querier
}

func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate registry schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Owner(ctx context.Context) (domain.Address, error) {
	var raw []byte
	err := s.q.QueryRowContext(ctx, `SELECT owner FROM registry_meta WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ZeroAddress, sentinel.ErrNotFound
		}
		return domain.ZeroAddress, fmt.Errorf("find owner: %w", err)
	}
	owner, err := domain.AddressFromBytes(raw)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("decode owner: %w", err)
	}
	return owner, nil
}

func (s *PostgresStore) SetOwner(ctx context.Context, owner domain.Address) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO registry_meta (id, owner) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET owner = EXCLUDED.owner, updated_at = now()
	`, owner.Bytes())
	if err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsIssuer(ctx context.Context, addr domain.Address) (bool, error) {
	var ok bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registry_issuers WHERE address = $1)`, addr.Bytes()).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("find issuer: %w", err)
	}
	return ok, nil
}

// AddIssuers approves every address in one statement.
func (s *PostgresStore) AddIssuers(ctx context.Context, addrs ...domain.Address) error {
	if len(addrs) == 0 {
		return nil
	}
	raw := make(pq.ByteaArray, len(addrs))
	for i, addr := range addrs {
		raw[i] = addr.Bytes()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO registry_issuers (address) SELECT unnest($1::bytea[]) ON CONFLICT (address) DO NOTHING`, raw)
	if err != nil {
		return fmt.Errorf("add issuers: %w", err)
	}
	return nil
}

// CredentialCount relies on ids being exactly 1..N.
func (s *PostgresStore) CredentialCount(ctx context.Context) (uint64, error) {
	var count int64
	err := s.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM registry_credentials`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count credentials: %w", err)
	}
	return uint64(count), nil
}

// InsertCredential only inserts when c.ID continues the sequence. A concurrent
// writer that got there first surfaces as a unique violation; both cases map
// to sentinel.ErrConflict.
func (s *PostgresStore) InsertCredential(ctx context.Context, c *models.Credential) error {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO registry_credentials (id, issuer, subject, ipfs_hash, issued_at, expires_at, revoked)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE $1 = (SELECT COALESCE(MAX(id), 0) + 1 FROM registry_credentials)
	`,
		int64(c.ID),
		c.Issuer.Bytes(),
		c.Subject.Bytes(),
		c.IPFSHash,
		c.IssuedAt,
		c.ExpiresAt,
		c.Revoked,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("insert credential %d: %w", c.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("insert credential %d out of sequence: %w", c.ID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) FindCredential(ctx context.Context, id models.CredentialID) (*models.Credential, error) {
	var (
		c               models.Credential
		rawID           int64
		issuer, subject []byte
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT id, issuer, subject, ipfs_hash, issued_at, expires_at, revoked
		FROM registry_credentials
		WHERE id = $1
	`, int64(id)).Scan(&rawID, &issuer, &subject, &c.IPFSHash, &c.IssuedAt, &c.ExpiresAt, &c.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	c.ID = models.CredentialID(rawID)
	if c.Issuer, err = domain.AddressFromBytes(issuer); err != nil {
		return nil, fmt.Errorf("decode credential issuer: %w", err)
	}
	if c.Subject, err = domain.AddressFromBytes(subject); err != nil {
		return nil, fmt.Errorf("decode credential subject: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) MarkRevoked(ctx context.Context, id models.CredentialID) error {
	res, err := s.q.ExecContext(ctx, `UPDATE registry_credentials SET revoked = TRUE WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ListByIssuer returns ids in issuance order, which is id order.
func (s *PostgresStore) ListByIssuer(ctx context.Context, issuer domain.Address) ([]models.CredentialID, error) {
	var raw pq.Int64Array
	err := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(array_agg(id ORDER BY id), '{}')
		FROM registry_credentials
		WHERE issuer = $1
	`, issuer.Bytes()).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("list credentials by issuer: %w", err)
	}
	ids := make([]models.CredentialID, len(raw))
	for i, v := range raw {
		ids[i] = models.CredentialID(v)
	}
	return ids, nil
}

// RunInTx runs fn against a store bound to a single SQL transaction. Nested
// calls reuse the outer transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(store service.Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	if err := fn(&PostgresStore{db: s.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry tx: %w", err)
	}
	return nil
}
