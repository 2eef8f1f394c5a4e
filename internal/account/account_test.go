package account_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/pai-quiz/internal/account"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

func newTestService(t *testing.T, moderators ...string) (*account.Service, *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	for _, name := range []string{"Intro", "Advanced"} {
		if err := st.AddModule(ctx, name); err != nil {
			t.Fatalf("AddModule(%s) error = %v", name, err)
		}
	}
	svc, err := account.NewService(account.Config{
		Users:      st,
		Modules:    st,
		Moderators: moderators,
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, st
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	u, err := svc.Register(ctx, "  alice ", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("Username = %q, want alice", u.Username)
	}
	if u.PasswordHash == "secret1" || !account.IsBcrypt(u.PasswordHash) {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", u.PasswordHash)
	}
	if u.XP != 0 || len(u.Achievements) != 0 {
		t.Errorf("new user = xp %d achievements %v, want zero values", u.XP, u.Achievements)
	}
	if len(u.Unlocked) != 1 || u.Unlocked[0] != "Intro" {
		t.Errorf("Unlocked = %v, want [Intro]", u.Unlocked)
	}
	if u.Moderator || svc.IsModerator(u) {
		t.Error("user off the allow-list should not be a moderator")
	}

	if _, err := st.LoadUser(ctx, "alice"); err != nil {
		t.Errorf("LoadUser() error = %v, user should be persisted", err)
	}
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		wantField string
	}{
		{"short username", "ab", "secret1", "username"},
		{"long username", "abcdefghijklmnopqrstuvwxyz0123456", "secret1", "username"},
		{"username with space", "al ice", "secret1", "username"},
		{"empty username", "   ", "secret1", "username"},
		{"short password", "alice", "12345", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			_, err := svc.Register(context.Background(), tt.username, tt.password)
			var verr *quiz.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Register() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestService_Register_DuplicateLeavesExisting(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	first, err := svc.Register(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	first.XP = 120
	if err := st.SaveUser(ctx, first); err != nil {
		t.Fatalf("SaveUser() error = %v", err)
	}

	_, err = svc.Register(ctx, "alice", "other-pass")
	if !errors.Is(err, quiz.ErrValidation) {
		t.Fatalf("Register(duplicate) error = %v, want ValidationError", err)
	}

	stored, _ := st.LoadUser(ctx, "alice")
	if stored.XP != 120 {
		t.Errorf("XP = %d, want 120 (existing record unchanged)", stored.XP)
	}
	if _, err := svc.Login(ctx, "alice", "secret1"); err != nil {
		t.Errorf("Login(first password) error = %v", err)
	}
}

func TestService_Register_NoModules(t *testing.T) {
	st := store.NewMemoryStore()
	svc, _ := account.NewService(account.Config{Users: st, Modules: st, BcryptCost: bcrypt.MinCost})

	u, err := svc.Register(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(u.Unlocked) != 0 {
		t.Errorf("Unlocked = %v, want none without modules", u.Unlocked)
	}
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	if _, err := svc.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_ = st.CreateUser(ctx, &store.User{
		Username:     "legacy",
		PasswordHash: "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8",
	})

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "alice", "secret1", nil},
		{"wrong password", "alice", "secret2", account.ErrAuth},
		{"unknown user", "bob", "secret1", account.ErrAuth},
		{"legacy digest", "legacy", "password", account.ErrAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Login(ctx, tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && u.Username != tt.username {
				t.Errorf("Username = %q, want %q", u.Username, tt.username)
			}
		})
	}
}

func TestService_RequireModerator(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, "mod")

	mod, err := svc.Register(ctx, "mod", "secret1")
	if err != nil {
		t.Fatalf("Register(mod) error = %v", err)
	}
	if !svc.IsModerator(mod) {
		t.Error("allow-listed user should be a moderator")
	}
	if mod.Moderator {
		t.Error("allow-list rights should not be stored on the user")
	}
	if _, err := svc.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("Register(alice) error = %v", err)
	}

	if _, err := svc.RequireModerator(ctx, "mod"); err != nil {
		t.Errorf("RequireModerator(mod) error = %v", err)
	}
	if _, err := svc.RequireModerator(ctx, "alice"); !errors.Is(err, account.ErrForbidden) {
		t.Errorf("RequireModerator(alice) error = %v, want ErrForbidden", err)
	}
	if _, err := svc.RequireModerator(ctx, "ghost"); !errors.Is(err, account.ErrForbidden) {
		t.Errorf("RequireModerator(ghost) error = %v, want ErrForbidden", err)
	}

	// A flag stored by an earlier migration also grants rights.
	alice, _ := st.LoadUser(ctx, "alice")
	alice.Moderator = true
	_ = st.SaveUser(ctx, alice)
	if _, err := svc.RequireModerator(ctx, "alice"); err != nil {
		t.Errorf("RequireModerator(alice) after flag error = %v", err)
	}
}

func TestService_AllowListRemovalRevokes(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, "mod")
	if _, err := svc.Register(ctx, "mod", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Login(ctx, "mod", "secret1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Same store, restarted without mod on the allow-list.
	restarted, err := account.NewService(account.Config{Users: st, Modules: st, BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if _, err := restarted.RequireModerator(ctx, "mod"); !errors.Is(err, account.ErrForbidden) {
		t.Errorf("RequireModerator() after allow-list removal error = %v, want ErrForbidden", err)
	}
	u, _ := st.LoadUser(ctx, "mod")
	if restarted.IsModerator(u) {
		t.Error("IsModerator() = true after allow-list removal")
	}
}

func TestService_SetPassword(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	_ = st.CreateUser(ctx, &store.User{
		Username:     "legacy",
		PasswordHash: "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8",
	})

	var verr *quiz.ValidationError
	if err := svc.SetPassword(ctx, "legacy", "short"); !errors.As(err, &verr) || verr.Field != "password" {
		t.Errorf("SetPassword(short) error = %v, want password ValidationError", err)
	}
	if err := svc.SetPassword(ctx, "ghost", "secret1"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("SetPassword(ghost) error = %v, want ErrUserNotFound", err)
	}

	if err := svc.SetPassword(ctx, "legacy", "fresh-start"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if _, err := svc.Login(ctx, "legacy", "fresh-start"); err != nil {
		t.Errorf("Login() after SetPassword error = %v", err)
	}
}

func TestIsLegacyDigest(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", true},
		{"5E884898DA28047151D0E56F8DC6292773603D0D6AABBDD62A11EF721D1542D8", true},
		{"secret", false},
		{"zz884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := account.IsLegacyDigest(tt.in); got != tt.want {
			t.Errorf("IsLegacyDigest(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMigrateLegacyPasswords(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	hashed, _ := account.HashPassword("already", bcrypt.MinCost)
	for _, u := range []store.User{
		{Username: "plain", PasswordHash: "hunter2"},
		{Username: "digest", PasswordHash: "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"},
		{Username: "modern", PasswordHash: hashed},
	} {
		u := u
		if err := st.CreateUser(ctx, &u); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", u.Username, err)
		}
	}

	report, err := account.MigrateLegacyPasswords(ctx, st, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("MigrateLegacyPasswords() error = %v", err)
	}
	if len(report.Hashed) != 1 || report.Hashed[0] != "plain" {
		t.Errorf("Hashed = %v, want [plain]", report.Hashed)
	}
	if report.AlreadyHashed != 1 {
		t.Errorf("AlreadyHashed = %d, want 1", report.AlreadyHashed)
	}
	if len(report.Unmigratable) != 1 || report.Unmigratable[0] != "digest" {
		t.Errorf("Unmigratable = %v, want [digest]", report.Unmigratable)
	}

	plain, _ := st.LoadUser(ctx, "plain")
	if !account.CheckPassword(plain.PasswordHash, "hunter2") {
		t.Error("migrated password should verify against the old plaintext")
	}

	again, err := account.MigrateLegacyPasswords(ctx, st, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("second MigrateLegacyPasswords() error = %v", err)
	}
	if len(again.Hashed) != 0 || again.AlreadyHashed != 2 {
		t.Errorf("second run = %+v, want nothing hashed and 2 already hashed", again)
	}
}
