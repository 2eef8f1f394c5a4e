package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/pai-quiz/internal/store"
)

// legacyDigestLen is the length of the hex digests written by the old
// application. Shorter stored values are plaintext passwords.
const legacyDigestLen = 64

// HashPassword hashes password with bcrypt. cost 0 uses bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches a bcrypt hash. Legacy
// digests and plaintext values never match.
func CheckPassword(hash, password string) bool {
	if !IsBcrypt(hash) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsBcrypt reports whether stored looks like a bcrypt hash.
func IsBcrypt(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}

// IsLegacyDigest reports whether stored is a 64 character hex digest.
func IsLegacyDigest(stored string) bool {
	if len(stored) != legacyDigestLen {
		return false
	}
	return strings.Trim(strings.ToLower(stored), "0123456789abcdef") == ""
}

// MigrationReport summarizes MigrateLegacyPasswords.
type MigrationReport struct {
	Hashed        []string // plaintext passwords now bcrypt-hashed
	AlreadyHashed int
	Unmigratable  []string // legacy digests that cannot be upgraded offline
}

// MigrateLegacyPasswords upgrades plaintext passwords in users to bcrypt.
// Legacy digests are reported and left untouched; those users cannot log in
// until a moderator sets a new password (manage.Service.ResetPassword).
func MigrateLegacyPasswords(ctx context.Context, users store.UserStore, cost int) (MigrationReport, error) {
	var report MigrationReport

	list, err := users.ListUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}

	for i := range list {
		u := &list[i]
		switch {
		case IsBcrypt(u.PasswordHash):
			report.AlreadyHashed++
		case IsLegacyDigest(u.PasswordHash):
			report.Unmigratable = append(report.Unmigratable, u.Username)
			slog.Warn("legacy password digest cannot be migrated", "username", u.Username)
		case u.PasswordHash == "":
			report.Unmigratable = append(report.Unmigratable, u.Username)
			slog.Warn("user has no password", "username", u.Username)
		default:
			hash, err := HashPassword(u.PasswordHash, cost)
			if err != nil {
				return report, err
			}
			u.PasswordHash = hash
			if err := users.SaveUser(ctx, u); err != nil {
				return report, fmt.Errorf("save %s: %w", u.Username, err)
			}
			report.Hashed = append(report.Hashed, u.Username)
			slog.Info("password migrated to bcrypt", "username", u.Username)
		}
	}

	return report, nil
}
