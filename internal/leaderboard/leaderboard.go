// Package leaderboard ranks users by experience.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

// Entry is one ranked row.
type Entry struct {
	Rank     int
	Username string
	XP       int
	Level    int
}

// Score is a username with its xp.
type Score struct {
	Username string
	XP       int
}

// Ranker is an optional ranking cache in front of the user store.
type Ranker interface {
	Top(ctx context.Context, n int) ([]Score, error)
	Update(ctx context.Context, username string, xp int) error
	Rebuild(ctx context.Context, scores []Score) error
}

// UserLister lists every stored user.
type UserLister interface {
	ListUsers(ctx context.Context) ([]store.User, error)
}

// Board serves ranked users, from the ranker when it is in sync and from
// the store otherwise.
type Board struct {
	users  UserLister
	ranker Ranker
	synced atomic.Bool
}

// NewBoard creates a board. ranker may be nil.
func NewBoard(users UserLister, ranker Ranker) *Board {
	return &Board{users: users, ranker: ranker}
}

// Warm loads every user's xp into the ranker.
func (b *Board) Warm(ctx context.Context) error {
	if b.ranker == nil {
		return nil
	}
	users, err := b.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("warm leaderboard: %w", err)
	}
	scores := make([]Score, 0, len(users))
	for _, u := range users {
		scores = append(scores, Score{Username: u.Username, XP: u.XP})
	}
	if err := b.ranker.Rebuild(ctx, scores); err != nil {
		b.synced.Store(false)
		return fmt.Errorf("warm leaderboard: %w", err)
	}
	b.synced.Store(true)
	slog.Info("leaderboard cache warmed", "users", len(scores))
	return nil
}

// Update refreshes u in the ranker. Failures mark the ranker stale and
// are not returned.
func (b *Board) Update(ctx context.Context, u *store.User) {
	if b.ranker == nil || u == nil {
		return
	}
	if err := b.ranker.Update(ctx, u.Username, u.XP); err != nil {
		b.synced.Store(false)
		slog.Warn("leaderboard cache update failed", "username", u.Username, "error", err)
	}
}

// Top returns up to n users ordered by xp descending, then username.
func (b *Board) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}

	if b.ranker != nil && b.synced.Load() {
		scores, err := b.ranker.Top(ctx, n)
		if err == nil {
			return rank(scores, n), nil
		}
		slog.Warn("leaderboard cache read failed, using store", "error", err)
	}

	users, err := b.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	scores := make([]Score, 0, len(users))
	for _, u := range users {
		scores = append(scores, Score{Username: u.Username, XP: u.XP})
	}
	return rank(scores, n), nil
}

func rank(scores []Score, n int) []Entry {
	sorted := append([]Score{}, scores...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].XP != sorted[j].XP {
			return sorted[i].XP > sorted[j].XP
		}
		return sorted[i].Username < sorted[j].Username
	})
	sorted = sorted[:min(n, len(sorted))]

	entries := make([]Entry, 0, len(sorted))
	for i, s := range sorted {
		entries = append(entries, Entry{
			Rank:     i + 1,
			Username: s.Username,
			XP:       s.XP,
			Level:    progress.LevelFor(s.XP),
		})
	}
	return entries
}
