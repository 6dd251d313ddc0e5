package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/logging"
	"github.com/abhisek/prepbuddy/internal/store"
)

var (
	ErrUserExists   = errors.New("user already exists with this email")
	ErrNotSignedIn  = errors.New("not signed in")
	ErrInvalidEmail = errors.New("invalid email address")
)

// Service manages the session user (prepbuddy-user) and the roster of
// known users (prepbuddy-users). There is no password check; identity is
// local to the device.
type Service struct {
	kv     store.KV
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a Service over kv.
func NewService(kv store.KV, logger *zap.Logger) *Service {
	return &Service{kv: kv, logger: logging.OrNop(logger), now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Current returns the signed-in user, or nil.
func (s *Service) Current(ctx context.Context) (*User, error) {
	var u User
	found, err := store.ReadJSON(ctx, s.kv, store.KeyCurrentUser, &u)
	if errors.Is(err, store.ErrMalformed) {
		s.logger.Warn("discarding malformed session", zap.Error(err))
		return nil, nil
	}
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

// SignIn loads the user with email, creating one when unknown, and makes
// it the session user.
func (s *Service) SignIn(ctx context.Context, email string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var u User
	if i := indexByEmail(users, email); i >= 0 {
		u = users[i]
		u.LastLoginAt = now
	} else {
		u = newUser(uuid.NewString(), email, NameFromEmail(email), now)
	}

	if err := s.saveSession(ctx, upsert(users, u), u); err != nil {
		return nil, err
	}
	s.logger.Info("signed in", zap.String("user_id", u.ID))
	return &u, nil
}

// SignUp registers a new user and makes it the session user.
func (s *Service) SignUp(ctx context.Context, email, name string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	if indexByEmail(users, email) >= 0 {
		return nil, ErrUserExists
	}
	if strings.TrimSpace(name) == "" {
		name = NameFromEmail(email)
	}

	u := newUser(uuid.NewString(), email, name, s.now())
	if err := s.saveSession(ctx, append(users, u), u); err != nil {
		return nil, err
	}
	s.logger.Info("signed up", zap.String("user_id", u.ID))
	return &u, nil
}

// SignOut ends the session. The user stays in the roster.
func (s *Service) SignOut(ctx context.Context) error {
	return s.kv.Delete(ctx, store.KeyCurrentUser)
}

// UpdateStats applies a partial stats update to the session user. It does
// nothing when no user is signed in or nothing changed.
func (s *Service) UpdateStats(ctx context.Context, upd StatsUpdate) (bool, error) {
	u, err := s.Current(ctx)
	if err != nil || u == nil {
		return false, err
	}
	stats, changed := upd.Apply(u.Stats)
	if !changed {
		return false, nil
	}
	u.Stats = stats
	if err := s.persist(ctx, *u); err != nil {
		return false, err
	}
	return true, nil
}

// RecordXP pushes an experience total to the session user.
func (s *Service) RecordXP(ctx context.Context, totalXP, level int) error {
	_, err := s.UpdateStats(ctx, StatsUpdate{TotalXP: &totalXP, Level: &level})
	return err
}

// UpdatePreferences edits the session user's preferences.
func (s *Service) UpdatePreferences(ctx context.Context, edit func(*Preferences)) (*User, error) {
	return s.edit(ctx, func(u *User) { edit(&u.Preferences) })
}

// UpdateProfile edits the session user's profile.
func (s *Service) UpdateProfile(ctx context.Context, edit func(*Profile)) (*User, error) {
	return s.edit(ctx, func(u *User) { edit(&u.Profile) })
}

func (s *Service) edit(ctx context.Context, fn func(*User)) (*User, error) {
	u, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotSignedIn
	}
	fn(u)
	if err := s.persist(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

// persist writes u as the session user and replaces it in the roster.
func (s *Service) persist(ctx context.Context, u User) error {
	users, err := s.users(ctx)
	if err != nil {
		return err
	}
	if i := indexByEmail(users, u.Email); i >= 0 {
		users[i] = u
	}
	return s.saveSession(ctx, users, u)
}

func (s *Service) saveSession(ctx context.Context, users []User, u User) error {
	if err := store.WriteJSON(ctx, s.kv, store.KeyCurrentUser, u); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := store.WriteJSON(ctx, s.kv, store.KeyUsers, users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

func (s *Service) users(ctx context.Context) ([]User, error) {
	var users []User
	_, err := store.ReadJSON(ctx, s.kv, store.KeyUsers, &users)
	if errors.Is(err, store.ErrMalformed) {
		s.logger.Warn("discarding malformed user roster", zap.Error(err))
		return []User{}, nil
	}
	if err != nil {
		return nil, err
	}
	return users, nil
}

// upsert moves u to the end of users, replacing any entry with its email.
func upsert(users []User, u User) []User {
	out := make([]User, 0, len(users)+1)
	for _, existing := range users {
		if existing.Email != u.Email {
			out = append(out, existing)
		}
	}
	return append(out, u)
}

func indexByEmail(users []User, email string) int {
	for i, u := range users {
		if u.Email == email {
			return i
		}
	}
	return -1
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return email, nil
}
