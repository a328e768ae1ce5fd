package storage

import (
	"context"
	"fmt"
)

// APIKey is a stored technician credential. The raw key is never stored;
// lookup is by prefix, then bcrypt comparison against the hash.
type APIKey struct {
	KeyID     string `db:"key_id"`
	ProID     string `db:"pro_id"`
	Email     string `db:"email"`
	Role      string `db:"role"`
	KeyPrefix string `db:"key_prefix"`
	KeyHash   string `db:"key_hash"`
}

// GetAPIKeysByPrefix returns all active keys sharing a prefix. More than
// one row is possible; the caller disambiguates by hash comparison.
func (s *Storage) GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]APIKey, error) {
	query := fmt.Sprintf(`
		SELECT key_id, pro_id, COALESCE(email, '') AS email, COALESCE(role, 'pro') AS role,
		       key_prefix, key_hash
		FROM %s
		WHERE key_prefix = $1 AND revoked_at IS NULL`, s.schema.APIKeysTable)

	var keys []APIKey
	if err := s.db.SelectContext(ctx, &keys, query, prefix); err != nil {
		return nil, s.storeErr("get api keys by prefix", err)
	}
	return keys, nil
}
