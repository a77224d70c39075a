package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Service owns the session token. It is the only component that reads or writes
// the persisted session and the only one that starts a login or refresh.
type Service struct {
	Storage  Storage
	Obtainer TokenObtainer

	now func() time.Time

	mu      sync.Mutex
	state   State
	err     error
	changed chan struct{}
	current string
	// rejected is the refresh token the API last refused. It is not sent again.
	rejected string
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new authentication service.
func NewService(storage Storage, obtainer TokenObtainer, opts ...Option) *Service {
	s := &Service{
		Storage:  storage,
		Obtainer: obtainer,
		now:      time.Now,
		state:    StateReady,
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lease is a valid token handed out by GetToken. Call Done after the token was used
// successfully.
type Lease struct {
	Token  string
	Claims *Claims

	once sync.Once
	done func()
}

// Done reports successful use of the token. It is safe to call more than once.
func (l *Lease) Done() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		if l.done != nil {
			l.done()
		}
	})
}

// GetToken returns a valid session token, silently refreshing it when the stored
// one is missing or expired and a usable refresh record exists. While another
// login or refresh is in flight it waits for that cycle to finish.
func (s *Service) GetToken(ctx context.Context) (*Lease, error) {
	refreshed := false
	for {
		s.mu.Lock()
		waited, err := s.waitWhileLoadingLocked(ctx)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if waited {
			// The cycle this caller waited on is its refresh attempt.
			if s.state == StateFailed {
				err := s.err
				s.mu.Unlock()
				return nil, err
			}
			refreshed = true
		}

		claims, err := s.checkAuthorisedLocked(ctx)
		if err == nil {
			token := s.current
			s.mu.Unlock()
			log.Debug().Str("token", shortToken(token)).Msg("Using stored access token")
			return &Lease{Token: token, Claims: claims, done: s.markReady}, nil
		}
		log.Info().Err(err).Msg("Access token not usable")

		var record *RefreshRecord
		if !refreshed {
			var rerr error
			record, rerr = loadRefreshRecord(ctx, s.Storage, s.now())
			if rerr != nil {
				log.Info().Err(rerr).Msg("Can't refresh token")
			}
			if record != nil && record.Token == s.rejected {
				log.Info().Msg("Stored refresh token was already rejected")
				record = nil
			}
		}
		if record == nil {
			err = fmt.Errorf("%w: %w", ErrLoginRequired, err)
			s.setStateLocked(StateFailed, err)
			s.mu.Unlock()
			return nil, err
		}

		s.setStateLocked(StateLoading, nil)
		s.mu.Unlock()

		log.Info().Str("url", record.URL).Msg("Refreshing access token")
		if err := s.obtain(ctx, record.URL, Credentials{RefreshToken: record.Token}); err != nil {
			return nil, err
		}
		refreshed = true
	}
}

// Login exchanges credentials for a session token at url and persists the session.
// On failure the persisted session is left untouched.
func (s *Service) Login(ctx context.Context, url string, creds Credentials) error {
	if url == "" {
		return errors.New("login endpoint is required")
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if _, err := s.waitWhileLoadingLocked(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.setStateLocked(StateLoading, nil)
	s.mu.Unlock()

	log.Info().Str("url", url).Str("kind", creds.Kind()).Msg("Logging in")
	return s.obtain(ctx, url, creds)
}

// Logout removes the persisted session.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.waitWhileLoadingLocked(ctx); err != nil {
		return err
	}
	if err := s.Storage.Remove(ctx, KeyAuthToken); err != nil {
		return fmt.Errorf("failed to remove access token: %w", err)
	}
	if err := s.Storage.Remove(ctx, KeyRefreshData); err != nil {
		return fmt.Errorf("failed to remove refresh record: %w", err)
	}
	s.current = ""
	s.setStateLocked(StateReady, nil)
	log.Info().Msg("Logged out")
	return nil
}

// Check validates the stored session once, refreshing it if needed.
func (s *Service) Check(ctx context.Context) error {
	lease, err := s.GetToken(ctx)
	if err != nil {
		return err
	}
	lease.Done()
	return nil
}

// Status returns a snapshot of the current auth state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{State: s.state, Err: s.err}
}

// CurrentClaims decodes the in-memory session token. It returns nil when there is none.
func (s *Service) CurrentClaims() *Claims {
	s.mu.Lock()
	token := s.current
	s.mu.Unlock()
	if token == "" {
		return nil
	}
	claims, err := DecodeToken(token)
	if err != nil {
		return nil
	}
	return claims
}

// WaitReady blocks until the state is ready or ctx is done.
func (s *Service) WaitReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.state != StateReady {
		ch := s.changed
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			s.mu.Lock()
			return ctx.Err()
		}
		s.mu.Lock()
	}
	return nil
}

// obtain runs one login cycle. The caller must have set StateLoading.
func (s *Service) obtain(ctx context.Context, url string, creds Credentials) error {
	tok, err := s.Obtainer.ObtainToken(ctx, url, creds)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLoginFailed, err)
		log.Error().Err(err).Str("url", url).Msg("Failed to obtain token")
		s.mu.Lock()
		if creds.RefreshToken != "" && ctx.Err() == nil {
			s.rejected = creds.RefreshToken
		}
		s.setStateLocked(StateFailed, err)
		s.mu.Unlock()
		return err
	}
	if err := saveSession(ctx, s.Storage, url, tok); err != nil {
		log.Error().Err(err).Msg("Failed to persist session")
		s.setState(StateFailed, err)
		return err
	}

	s.mu.Lock()
	s.current = tok.Token
	s.rejected = ""
	s.setStateLocked(StateReady, nil)
	s.mu.Unlock()
	log.Info().Str("token", shortToken(tok.Token)).Msg("Obtained access token")
	return nil
}

// checkAuthorisedLocked re-syncs the in-memory token from storage and validates it.
// An unusable token is cleared from both.
func (s *Service) checkAuthorisedLocked(ctx context.Context) (*Claims, error) {
	stored, found, err := s.Storage.Get(ctx, KeyAuthToken)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read stored access token")
		stored, found = "", false
	}
	if !found {
		stored = ""
	}
	if stored != s.current {
		s.current = stored
	}

	claims, err := ValidateToken(s.current, s.now())
	if err != nil {
		if found {
			if rmErr := s.Storage.Remove(ctx, KeyAuthToken); rmErr != nil {
				log.Warn().Err(rmErr).Msg("Failed to remove unusable access token")
			}
		}
		s.current = ""
		return nil, err
	}
	return claims, nil
}

func (s *Service) markReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		s.setStateLocked(StateReady, nil)
	}
}

// waitWhileLoadingLocked releases the lock while waiting and holds it on return.
// It reports whether a loading cycle was in flight when it was called.
func (s *Service) waitWhileLoadingLocked(ctx context.Context) (bool, error) {
	waited := false
	for s.state == StateLoading {
		waited = true
		ch := s.changed
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			s.mu.Lock()
			return waited, ctx.Err()
		}
		s.mu.Lock()
	}
	return waited, nil
}

func (s *Service) setState(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStateLocked(state, err)
}

// setStateLocked records the transition and wakes every waiter.
func (s *Service) setStateLocked(state State, err error) {
	s.state = state
	s.err = err
	close(s.changed)
	s.changed = make(chan struct{})
}
