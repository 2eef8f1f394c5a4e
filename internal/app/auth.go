package app

import (
	"context"
	"strings"
)

func (a *App) handleWelcome(s *session, input string) string {
	switch strings.ToLower(input) {
	case "1", "login", "log in":
		s.screen = screenLoginUsername
		return "Username:"
	case "2", "register":
		s.screen = screenRegisterUsername
		return "Choose a username (3-32 characters, no spaces):"
	default:
		return welcomeText("")
	}
}

func (a *App) handleLogin(ctx context.Context, s *session, input string) string {
	if s.screen == screenLoginUsername {
		if input == "" {
			return "Username:"
		}
		s.username = input
		s.screen = screenLoginPassword
		return "Password:"
	}

	u, err := a.accounts.Login(ctx, s.username, input)
	if err != nil {
		s.reset()
		return welcomeText(describe(err))
	}
	s.reset()
	s.user = u
	s.screen = screenMenu
	return menuText(u, a.accounts.IsModerator(u), "Welcome back, "+u.Username+"!")
}

func (a *App) handleRegister(ctx context.Context, s *session, input string) string {
	if s.screen == screenRegisterUsername {
		s.username = input
		s.screen = screenRegisterPassword
		return "Choose a password (at least 6 characters):"
	}

	u, err := a.accounts.Register(ctx, s.username, input)
	if err != nil {
		s.reset()
		return welcomeText(describe(err))
	}
	s.reset()
	s.user = u
	s.screen = screenMenu
	a.board.Update(ctx, u)
	return menuText(u, a.accounts.IsModerator(u), "Account created. Welcome, "+u.Username+"!")
}
