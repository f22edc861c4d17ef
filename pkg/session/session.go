// Package session holds the state of one signed-in user on the client side:
// the profile, the unread notification count, the entitlement snapshot and the
// lists opened while signed in. It is created per user agent and passed to
// whatever needs it.
package session

import (
	"context"
	"fmt"
	"sync"

	"fanclub/pkg/apperr"
	"fanclub/pkg/client"
	"fanclub/pkg/domain"
	"fanclub/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// API is the part of client.Client a session uses.
type API interface {
	Login(ctx context.Context, email, password string) (*client.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*client.User, error)
	UnreadCount(ctx context.Context) (int64, error)
	Entitlements(ctx context.Context) (domain.ViewerEntitlement, error)
}

// Closer is a resource tied to the session, typically a *feed.Paginator.
type Closer interface {
	Close()
}

type Session struct {
	api    API
	logger *logger.Logger

	mu          sync.RWMutex
	user        *client.User
	unread      int64
	entitlement domain.ViewerEntitlement
	tracked     []Closer
}

func New(api API, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewNop()
	}
	return &Session{api: api, logger: log, entitlement: domain.Anonymous()}
}

// Login signs in and loads the unread count and entitlements. If loading fails
// the server session is ended again and the session stays signed out.
func (s *Session) Login(ctx context.Context, email, password string) (*client.User, error) {
	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.start(ctx, user); err != nil {
		if logoutErr := s.api.Logout(ctx); logoutErr != nil {
			s.logger.Warn("Failed to end half-initialized session: %v", logoutErr)
		}
		return nil, err
	}
	return user, nil
}

// Restore resumes a session from an existing cookie. It returns nil without an
// error when there is none.
func (s *Session) Restore(ctx context.Context) (*client.User, error) {
	user, err := s.api.Me(ctx)
	if apperr.IsKind(err, apperr.KindAuthRequired) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if err := s.start(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Session) start(ctx context.Context, user *client.User) error {
	var (
		unread int64
		ent    domain.ViewerEntitlement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.api.UnreadCount(gctx)
		if err != nil {
			return fmt.Errorf("failed to load unread count: %w", err)
		}
		unread = n
		return nil
	})
	g.Go(func() error {
		e, err := s.api.Entitlements(gctx)
		if err != nil {
			return fmt.Errorf("failed to load entitlements: %w", err)
		}
		ent = e
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = user
	s.unread = unread
	s.entitlement = ent
	s.mu.Unlock()
	s.logger.Debug("Session started for %s", user.ID)
	return nil
}

// Logout closes every tracked resource and clears local state. The server call
// is made last; its failure is returned but local state is gone regardless.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	tracked := s.tracked
	s.tracked = nil
	s.user = nil
	s.unread = 0
	s.entitlement = domain.Anonymous()
	s.mu.Unlock()

	for _, c := range tracked {
		c.Close()
	}
	if err := s.api.Logout(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

// Track ties c to the session; it is closed on Logout.
func (s *Session) Track(c Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked = append(s.tracked, c)
}

func (s *Session) User() *client.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// RequireUser returns the signed-in user or an AUTH_REQUIRED error that callers
// turn into a login prompt.
func (s *Session) RequireUser() (*client.User, error) {
	if u := s.User(); u != nil {
		return u, nil
	}
	return nil, apperr.AuthRequired("login required")
}

func (s *Session) UnreadCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// SetUnreadCount applies a count pushed by the server. It is ignored when signed out.
func (s *Session) SetUnreadCount(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return
	}
	if n < 0 {
		n = 0
	}
	s.unread = n
}

// Entitlement is the snapshot used to resolve access locally.
func (s *Session) Entitlement() domain.ViewerEntitlement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entitlement
}

// RefreshEntitlement reloads the snapshot, e.g. after subscribing or purchasing.
func (s *Session) RefreshEntitlement(ctx context.Context) (domain.ViewerEntitlement, error) {
	if !s.SignedIn() {
		return domain.Anonymous(), nil
	}
	ent, err := s.api.Entitlements(ctx)
	if err != nil {
		return s.Entitlement(), fmt.Errorf("failed to refresh entitlements: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.Anonymous(), nil
	}
	s.entitlement = ent
	return ent, nil
}
