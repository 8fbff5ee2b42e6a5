package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"credo/internal/registry/models"
	"credo/internal/registry/service"
	"credo/pkg/domain"
	"credo/pkg/platform/sentinel"
)

const (
	keyPrefix     = "credo:registry:"
	ownerKey      = keyPrefix + "owner"
	issuersKey    = keyPrefix + "issuers"
	countKey      = keyPrefix + "count"
	credentialKey = keyPrefix + "credential:"
	issuerKey     = keyPrefix + "issuer:"
)

// RedisStore persists registry state in Redis. Credentials are hashes, the
// issuer index is a list per issuer and the id counter is a plain integer key.
//
// Every write goes through a transaction: RunInTx WATCHes the owner and counter
// keys, buffers the writes fn makes and sends them as one MULTI/EXEC once fn
// returns nil. A failed fn sends nothing. A concurrent change to a watched key
// aborts the EXEC with sentinel.ErrConflict.
type RedisStore struct {
	client *redis.Client
	tx     *txState
}

// txState is the buffer of one open transaction.
type txState struct {
	conn   *redis.Tx
	queued []func(pipe redis.Pipeliner)
	// count tracks ids inserted earlier in the transaction.
	count    uint64
	hasCount bool
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) reader() redis.Cmdable {
	if s.tx != nil {
		return s.tx.conn
	}
	return s.client
}

func (s *RedisStore) Owner(ctx context.Context) (domain.Address, error) {
	raw, err := s.reader().Get(ctx, ownerKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ZeroAddress, sentinel.ErrNotFound
		}
		return domain.ZeroAddress, fmt.Errorf("get owner: %w", err)
	}
	owner, err := domain.ParseAddress(raw)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("decode owner: %w", err)
	}
	return owner, nil
}

func (s *RedisStore) SetOwner(ctx context.Context, owner domain.Address) error {
	return s.runTx(ctx, func(tx *RedisStore) error {
		tx.queue(func(pipe redis.Pipeliner) {
			pipe.Set(ctx, ownerKey, owner.Hex(), 0)
		})
		return nil
	})
}

func (s *RedisStore) IsIssuer(ctx context.Context, addr domain.Address) (bool, error) {
	ok, err := s.reader().SIsMember(ctx, issuersKey, addr.Hex()).Result()
	if err != nil {
		return false, fmt.Errorf("check issuer: %w", err)
	}
	return ok, nil
}

// AddIssuers approves every address with a single SADD.
func (s *RedisStore) AddIssuers(ctx context.Context, addrs ...domain.Address) error {
	if len(addrs) == 0 {
		return nil
	}
	members := make([]any, len(addrs))
	for i, addr := range addrs {
		members[i] = addr.Hex()
	}
	return s.runTx(ctx, func(tx *RedisStore) error {
		tx.queue(func(pipe redis.Pipeliner) {
			pipe.SAdd(ctx, issuersKey, members...)
		})
		return nil
	})
}

func (s *RedisStore) CredentialCount(ctx context.Context) (uint64, error) {
	if s.tx != nil && s.tx.hasCount {
		return s.tx.count, nil
	}
	return readCount(ctx, s.reader())
}

func readCount(ctx context.Context, c redis.Cmdable) (uint64, error) {
	count, err := c.Get(ctx, countKey).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get credential count: %w", err)
	}
	return count, nil
}

func (s *RedisStore) InsertCredential(ctx context.Context, c *models.Credential) error {
	return s.runTx(ctx, func(tx *RedisStore) error {
		count, err := tx.CredentialCount(ctx)
		if err != nil {
			return err
		}
		if uint64(c.ID) != count+1 {
			return fmt.Errorf("insert credential %d, expected %d: %w", c.ID, count+1, sentinel.ErrConflict)
		}
		record := *c
		tx.queue(func(pipe redis.Pipeliner) {
			pipe.HSet(ctx, credentialKey+record.ID.String(), map[string]any{
				"issuer":     record.Issuer.Hex(),
				"subject":    record.Subject.Hex(),
				"ipfs_hash":  record.IPFSHash,
				"issued_at":  record.IssuedAt,
				"expires_at": record.ExpiresAt,
				"revoked":    formatBool(record.Revoked),
			})
			pipe.RPush(ctx, issuerKey+record.Issuer.Hex(), uint64(record.ID))
			pipe.Set(ctx, countKey, uint64(record.ID), 0)
		})
		tx.tx.count, tx.tx.hasCount = uint64(c.ID), true
		return nil
	})
}

func (s *RedisStore) FindCredential(ctx context.Context, id models.CredentialID) (*models.Credential, error) {
	fields, err := s.reader().HGetAll(ctx, credentialKey+id.String()).Result()
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return decodeCredential(id, fields)
}

func (s *RedisStore) MarkRevoked(ctx context.Context, id models.CredentialID) error {
	key := credentialKey + id.String()
	return s.runTx(ctx, func(tx *RedisStore) error {
		n, err := tx.reader().Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("revoke credential: %w", err)
		}
		if n == 0 {
			return sentinel.ErrNotFound
		}
		tx.queue(func(pipe redis.Pipeliner) {
			pipe.HSet(ctx, key, "revoked", formatBool(true))
		})
		return nil
	})
}

func (s *RedisStore) ListByIssuer(ctx context.Context, issuer domain.Address) ([]models.CredentialID, error) {
	raw, err := s.reader().LRange(ctx, issuerKey+issuer.Hex(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list credentials by issuer: %w", err)
	}
	ids := make([]models.CredentialID, 0, len(raw))
	for _, v := range raw {
		id, err := models.ParseCredentialID(v)
		if err != nil {
			return nil, fmt.Errorf("decode issuer index entry %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *RedisStore) RunInTx(ctx context.Context, fn func(store service.Store) error) error {
	return s.runTx(ctx, func(tx *RedisStore) error { return fn(tx) })
}

// runTx joins the open transaction or starts one.
func (s *RedisStore) runTx(ctx context.Context, fn func(tx *RedisStore) error) error {
	if s.tx != nil {
		return fn(s)
	}
	err := s.client.Watch(ctx, func(conn *redis.Tx) error {
		tx := &RedisStore{client: s.client, tx: &txState{conn: conn}}
		if err := fn(tx); err != nil {
			return err
		}
		if len(tx.tx.queued) == 0 {
			return nil
		}
		_, err := conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, op := range tx.tx.queued {
				op(pipe)
			}
			return nil
		})
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("commit registry transaction: %w", err)
		}
		return err
	}, ownerKey, countKey)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("registry transaction: %w", sentinel.ErrConflict)
	}
	return err
}

func (s *RedisStore) queue(op func(pipe redis.Pipeliner)) {
	s.tx.queued = append(s.tx.queued, op)
}

func decodeCredential(id models.CredentialID, fields map[string]string) (*models.Credential, error) {
	issuer, err := domain.ParseAddress(fields["issuer"])
	if err != nil {
		return nil, fmt.Errorf("decode credential issuer: %w", err)
	}
	subject, err := domain.ParseAddress(fields["subject"])
	if err != nil {
		return nil, fmt.Errorf("decode credential subject: %w", err)
	}
	issuedAt, err := strconv.ParseInt(fields["issued_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode credential issued_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode credential expires_at: %w", err)
	}
	return &models.Credential{
		ID:        id,
		Issuer:    issuer,
		Subject:   subject,
		IPFSHash:  fields["ipfs_hash"],
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Revoked:   fields["revoked"] == "1",
	}, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
