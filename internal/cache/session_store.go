package cache

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/nacl/secretbox"

	"otc-signal/internal/domain"
)

const (
	sessionKeyPrefix  = "otc:session:"
	defaultSessionTTL = 12 * time.Hour
	nonceSize         = 24
)

// SessionStore keeps broker credentials in Redis, sealed with a key derived
// from the configured secret. Tokens are random UUIDs.
type SessionStore struct {
	client *redis.Client
	key    [32]byte
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, secret string, ttl time.Duration) (*SessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, key: sha256.Sum256([]byte(secret)), ttl: ttl}, nil
}

func (s *SessionStore) Save(ctx context.Context, creds domain.Credentials) (string, error) {
	sealed, err := s.seal(creds)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKeyPrefix+token, sealed, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *SessionStore) Load(ctx context.Context, token string) (domain.Credentials, error) {
	if _, err := uuid.Parse(token); err != nil {
		return domain.Credentials{}, domain.ErrNoSession
	}
	raw, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Credentials{}, domain.ErrNoSession
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("load session: %w", err)
	}
	creds, err := s.open(raw)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("%w: %v", domain.ErrNoSession, err)
	}
	return creds, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) seal(creds domain.Credentials) ([]byte, error) {
	plain, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("session nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *SessionStore) open(sealed []byte) (domain.Credentials, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return domain.Credentials{}, errors.New("session payload too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return domain.Credentials{}, errors.New("session payload rejected")
	}
	var creds domain.Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("decode session: %w", err)
	}
	return creds, nil
}
