package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"otc-signal/internal/domain"
)

type CredentialVerifier interface {
	Verify(ctx context.Context, creds domain.Credentials) error
}

// SessionStore keeps credentials between requests. Load returns
// domain.ErrNoSession for unknown or expired tokens.
type SessionStore interface {
	Save(ctx context.Context, creds domain.Credentials) (string, error)
	Load(ctx context.Context, token string) (domain.Credentials, error)
	Delete(ctx context.Context, token string) error
}

type SessionService struct {
	tracer   trace.Tracer
	verifier CredentialVerifier
	store    SessionStore
	account  string
}

func NewSessionService(tracer trace.Tracer, verifier CredentialVerifier, store SessionStore, account string) *SessionService {
	if account == "" {
		account = domain.AccountPractice
	}
	return &SessionService{tracer: tracer, verifier: verifier, store: store, account: account}
}

// Login verifies creds against the broker and opens a session. Any broker
// failure is reported as domain.ErrLoginFailed.
func (s *SessionService) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	ctx, span := s.tracer.Start(ctx, "session-service.login")
	defer span.End()

	if s.verifier == nil || s.store == nil {
		return "", fmt.Errorf("session service is not fully initialized")
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.IsZero() {
		return "", domain.ErrLoginFailed
	}
	if creds.Account == "" {
		creds.Account = s.account
	}

	if err := s.verifier.Verify(ctx, creds); err != nil {
		log.Warn().Err(err).Str("email", creds.Email).Msg("broker login failed")
		if errors.Is(err, domain.ErrLoginFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrLoginFailed, err)
	}

	token, err := s.store.Save(ctx, creds)
	if err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	log.Info().Str("email", creds.Email).Msg("session opened")
	return token, nil
}

func (s *SessionService) Resolve(ctx context.Context, token string) (domain.Credentials, error) {
	ctx, span := s.tracer.Start(ctx, "session-service.resolve")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" || s.store == nil {
		return domain.Credentials{}, domain.ErrNoSession
	}
	return s.store.Load(ctx, token)
}

func (s *SessionService) Logout(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "session-service.logout")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" || s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, token)
}
