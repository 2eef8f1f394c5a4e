package app

import (
	"context"
	"log/slog"
	"strings"
)

func (a *App) handleMenu(ctx context.Context, s *session, input string) string {
	isMod := a.accounts.IsModerator(s.user)

	switch strings.ToLower(input) {
	case "1", "quiz":
		names, err := a.store.ModuleNames(ctx)
		if err != nil {
			return menuText(s.user, isMod, describe(err))
		}
		if len(names) == 0 {
			return menuText(s.user, isMod, "No modules available yet.")
		}
		s.modules = names
		s.screen = screenPickModule
		return moduleListText("Choose a module:", names, s.user)
	case "2", "stats":
		return blocks(statsText(s.user), menuText(s.user, isMod, ""))
	case "3", "leaderboard":
		entries, err := a.board.Top(ctx, a.boardSize)
		if err != nil {
			return menuText(s.user, isMod, describe(err))
		}
		return blocks(leaderboardText(entries, a.boardSize), menuText(s.user, isMod, ""))
	case "4", "achievements":
		names, err := a.store.ModuleNames(ctx)
		if err != nil {
			slog.Warn("listing modules for achievements failed", "error", err)
		}
		return blocks(achievementsText(s.user, a.engine.Catalog(), names), menuText(s.user, isMod, ""))
	case "5", "moderator":
		if _, err := a.accounts.RequireModerator(ctx, s.user.Username); err != nil {
			return menuText(s.user, isMod, describe(err))
		}
		s.screen = screenModerator
		return moderatorText("")
	case "9", "logout", "log out":
		slog.Info("player logged out", "username", s.user.Username)
		s.reset()
		return welcomeText("Logged out.")
	default:
		return menuText(s.user, isMod, "")
	}
}
