// Package account handles registration, login and moderator authorization.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

var (
	// ErrAuth is returned for unknown users and wrong passwords.
	ErrAuth = errors.New("invalid username or password")
	// ErrForbidden is returned when a non-moderator attempts a moderator action.
	ErrForbidden = errors.New("moderator privileges required")
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
)

// ModuleLister lists module names in catalog order.
type ModuleLister interface {
	ModuleNames(ctx context.Context) ([]string, error)
}

// Config holds dependencies for the account service.
type Config struct {
	Users      store.UserStore
	Modules    ModuleLister
	Moderators []string // usernames granted moderator rights
	BcryptCost int      // 0 uses bcrypt.DefaultCost
}

// Service registers and authenticates users.
type Service struct {
	users      store.UserStore
	modules    ModuleLister
	moderators []string
	cost       int
}

// NewService creates an account service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if cfg.Modules == nil {
		return nil, fmt.Errorf("module lister is required")
	}
	mods := make([]string, 0, len(cfg.Moderators))
	for _, m := range cfg.Moderators {
		if m = strings.TrimSpace(m); m != "" {
			mods = append(mods, m)
		}
	}
	return &Service{
		users:      cfg.Users,
		modules:    cfg.Modules,
		moderators: mods,
		cost:       cfg.BcryptCost,
	}, nil
}

// Register creates a user with the first module unlocked.
func (s *Service) Register(ctx context.Context, username, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return nil, err
	}

	u := &store.User{
		Username:     username,
		PasswordHash: hash,
		Unlocked:     []string{},
		Achievements: []string{},
	}

	names, err := s.modules.ModuleNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", username, err)
	}
	if len(names) > 0 {
		u.Unlock(names[0])
	}

	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, &quiz.ValidationError{Field: "username", Message: "is already taken"}
		}
		return nil, fmt.Errorf("register %s: %w", username, err)
	}

	slog.Info("user registered", "username", username, "moderator", s.IsModerator(u))
	return u, nil
}

// Login verifies credentials and returns the stored user.
func (s *Service) Login(ctx context.Context, username, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	u, err := s.users.LoadUser(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrAuth
		}
		return nil, fmt.Errorf("login %s: %w", username, err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		if IsLegacyDigest(u.PasswordHash) {
			slog.Warn("login rejected for unmigrated legacy password", "username", username)
		}
		return nil, ErrAuth
	}
	slog.Info("user logged in", "username", username)
	return u, nil
}

// RequireModerator reloads username and checks moderator rights at the
// point of use.
func (s *Service) RequireModerator(ctx context.Context, username string) (*store.User, error) {
	u, err := s.users.LoadUser(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("authorize %s: %w", username, err)
	}
	if !u.Moderator && !s.onAllowList(username) {
		return nil, ErrForbidden
	}
	return u, nil
}

// SetPassword replaces the password of username with a bcrypt hash of
// password. Callers authorize the change.
func (s *Service) SetPassword(ctx context.Context, username, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	u, err := s.users.LoadUser(ctx, username)
	if err != nil {
		return fmt.Errorf("set password for %s: %w", username, err)
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if err := s.users.SaveUser(ctx, u); err != nil {
		return fmt.Errorf("set password for %s: %w", username, err)
	}
	slog.Info("password set", "username", username)
	return nil
}

// IsModerator reports whether u holds moderator rights: a stored flag, or
// the allow-list as currently configured.
func (s *Service) IsModerator(u *store.User) bool {
	return u != nil && (u.Moderator || s.onAllowList(u.Username))
}

func (s *Service) onAllowList(username string) bool {
	return slices.Contains(s.moderators, username)
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return &quiz.ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", minPasswordLen),
		}
	}
	return nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return &quiz.ValidationError{
			Field:   "username",
			Message: fmt.Sprintf("must be %d-%d characters", minUsernameLen, maxUsernameLen),
		}
	}
	if strings.ContainsFunc(username, unicode.IsSpace) {
		return &quiz.ValidationError{Field: "username", Message: "must not contain spaces"}
	}
	return nil
}
