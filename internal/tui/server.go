package tui

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/recover"
	"github.com/rs/zerolog/log"
	gossh "golang.org/x/crypto/ssh"

	"otc-signal/internal/domain"
	"otc-signal/internal/repository"
)

const userLookupTimeout = 5 * time.Second

// UserStore resolves SSH public key fingerprints to operators.
type UserStore interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*repository.SSHUser, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

type SSHConfig struct {
	Bind        string
	Port        int
	HostKeyPath string
	IdleTimeout time.Duration
}

type userContextKey struct{}

// NewSSHServer serves the TUI to operators whose key fingerprint is
// registered in the user store. Signals are requested with creds.
func NewSSHServer(cfg SSHConfig, users UserStore, signals SignalQuerier, creds domain.Credentials) (*ssh.Server, error) {
	if users == nil {
		return nil, fmt.Errorf("ssh user store is required")
	}
	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port))),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithPublicKeyAuth(authorizeKey(users)),
		wish.WithMiddleware(
			recover.MiddlewareWithLogger(&log.Logger,
				bm.Middleware(teaHandler(signals, creds)),
				activeterm.Middleware(),
			),
			loggingMiddleware(),
		),
	}
	if cfg.IdleTimeout > 0 {
		opts = append(opts, wish.WithIdleTimeout(cfg.IdleTimeout))
	}
	return wish.NewServer(opts...)
}

func authorizeKey(users UserStore) ssh.PublicKeyHandler {
	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		user, ok := lookupUser(ctx, users, key)
		if ok {
			ctx.SetValue(userContextKey{}, user)
		}
		return ok
	}
}

func lookupUser(ctx context.Context, users UserStore, key gossh.PublicKey) (*repository.SSHUser, bool) {
	fingerprint := gossh.FingerprintSHA256(key)
	ctx, cancel := context.WithTimeout(ctx, userLookupTimeout)
	defer cancel()

	user, err := users.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		log.Error().Err(err).Str("fingerprint", fingerprint).Msg("ssh user lookup failed")
		return nil, false
	}
	if user == nil {
		log.Warn().Str("fingerprint", fingerprint).Msg("ssh key not registered")
		return nil, false
	}
	if err := users.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record ssh login")
	}
	return user, true
}

func teaHandler(signals SignalQuerier, creds domain.Credentials) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		svc := sessionServices(s.Context().Value(userContextKey{}), s.User(), signals, creds)
		m := NewAppModel(svc)
		if pty, _, ok := s.Pty(); ok {
			m.SetSize(pty.Window.Width, pty.Window.Height)
		}
		return m, []tea.ProgramOption{tea.WithAltScreen()}
	}
}

func sessionServices(authUser any, sshUser string, signals SignalQuerier, creds domain.Credentials) Services {
	svc := Services{Signals: signals, Credentials: creds, Username: sshUser}
	if user, ok := authUser.(*repository.SSHUser); ok && user != nil {
		svc.UserID = user.ID
		svc.Username = user.Username
	}
	return svc
}

func loggingMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			start := time.Now()
			log.Info().Str("user", s.User()).Str("remote", s.RemoteAddr().String()).Msg("ssh session started")
			next(s)
			log.Info().Str("user", s.User()).Dur("duration", time.Since(start)).Msg("ssh session ended")
		}
	}
}
