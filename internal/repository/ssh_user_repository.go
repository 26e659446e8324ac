package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

// SSHUser is an operator allowed into the terminal UI.
type SSHUser struct {
	ID          int64
	Username    string
	Fingerprint string
	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

const (
	findSSHUserSQL = `
SELECT id, username, fingerprint, is_active, last_login_at, created_at
FROM ssh_users
WHERE fingerprint = $1 AND is_active`

	registerSSHUserSQL = `
INSERT INTO ssh_users (username, fingerprint)
VALUES ($1, $2)
ON CONFLICT (username) DO UPDATE SET fingerprint = EXCLUDED.fingerprint, is_active = TRUE
RETURNING id`

	touchSSHUserSQL      = `UPDATE ssh_users SET last_login_at = NOW() WHERE id = $1`
	deactivateSSHUserSQL = `UPDATE ssh_users SET is_active = FALSE WHERE username = $1`
)

var ErrSSHUserNotFound = errors.New("ssh user not found")

type SSHUserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSSHUserRepository(pool PgxPool, tracer trace.Tracer) *SSHUserRepository {
	return &SSHUserRepository{pool: pool, tracer: tracer}
}

// FindByFingerprint returns nil without error when no active user owns the key.
func (r *SSHUserRepository) FindByFingerprint(ctx context.Context, fingerprint string) (_ *SSHUser, err error) {
	ctx, span := r.tracer.Start(ctx, "ssh-user-repo.find")
	defer func() { endSpan(span, err) }()

	var u SSHUser
	err = r.pool.QueryRow(ctx, findSSHUserSQL, fingerprint).
		Scan(&u.ID, &u.Username, &u.Fingerprint, &u.IsActive, &u.LastLoginAt, &u.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("find ssh user: %w", err)
	}
	return &u, nil
}

// Register stores the key in authorized_keys format for username, replacing
// any previous key and reactivating the account. It returns the user id and
// the key fingerprint.
func (r *SSHUserRepository) Register(ctx context.Context, username, authorizedKey string) (id int64, fingerprint string, err error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, "", errors.New("username is required")
	}
	key, _, _, _, err := gossh.ParseAuthorizedKey([]byte(authorizedKey))
	if err != nil {
		return 0, "", fmt.Errorf("parse public key: %w", err)
	}
	fingerprint = gossh.FingerprintSHA256(key)

	ctx, span := r.tracer.Start(ctx, "ssh-user-repo.register", trace.WithAttributes(
		attribute.String("username", username),
		attribute.String("key_type", key.Type()),
	))
	defer func() { endSpan(span, err) }()

	if err = r.pool.QueryRow(ctx, registerSSHUserSQL, username, fingerprint).Scan(&id); err != nil {
		return 0, "", fmt.Errorf("register ssh user %s: %w", username, err)
	}
	return id, fingerprint, nil
}

// Deactivate locks username out without deleting its history.
func (r *SSHUserRepository) Deactivate(ctx context.Context, username string) (err error) {
	ctx, span := r.tracer.Start(ctx, "ssh-user-repo.deactivate")
	defer func() { endSpan(span, err) }()

	tag, err := r.pool.Exec(ctx, deactivateSSHUserSQL, username)
	if err != nil {
		return fmt.Errorf("deactivate ssh user %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrSSHUserNotFound, username)
	}
	return nil
}

func (r *SSHUserRepository) TouchLastLogin(ctx context.Context, userID int64) (err error) {
	ctx, span := r.tracer.Start(ctx, "ssh-user-repo.touch")
	defer func() { endSpan(span, err) }()

	_, err = r.pool.Exec(ctx, touchSSHUserSQL, userID)
	return err
}
