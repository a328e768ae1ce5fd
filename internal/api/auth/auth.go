package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fieldhq/pro-dispatch/internal/api/storage"
	"golang.org/x/crypto/bcrypt"
)

const keyPrefixLen = 8

// Auth failures are fatal: no partial processing happens after one.
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Identity is the verified technician identity handed to the engine.
type Identity struct {
	TechnicianID string
	Email        string
	Role         string
}

// KeyStore is the credential lookup the verifier needs.
type KeyStore interface {
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]storage.APIKey, error)
}

// Verifier validates bearer API keys: lookup by 8-char prefix, then bcrypt
// comparison against each candidate hash.
type Verifier struct {
	keys   KeyStore
	logger *slog.Logger
}

// NewVerifier creates a Verifier.
func NewVerifier(keys KeyStore, logger *slog.Logger) *Verifier {
	return &Verifier{keys: keys, logger: logger}
}

// Verify resolves a raw bearer token to a technician identity.
func (v *Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}
	if len(token) < keyPrefixLen {
		return Identity{}, ErrInvalidToken
	}

	candidates, err := v.keys.GetAPIKeysByPrefix(ctx, token[:keyPrefixLen])
	if err != nil {
		return Identity{}, fmt.Errorf("api key lookup: %w", err)
	}

	for _, key := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(token)) == nil {
			return Identity{
				TechnicianID: key.ProID,
				Email:        key.Email,
				Role:         key.Role,
			}, nil
		}
	}

	v.logger.Debug("Bearer token matched no stored key",
		slog.String("prefix", token[:keyPrefixLen]),
	)
	return Identity{}, ErrInvalidToken
}
