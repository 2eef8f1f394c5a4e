package app

import (
	"github.com/p-n-ai/pai-quiz/internal/manage"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

type screen int

const (
	screenWelcome screen = iota
	screenLoginUsername
	screenLoginPassword
	screenRegisterUsername
	screenRegisterPassword
	screenMenu
	screenPickModule
	screenQuiz
	screenModerator
	screenModPickModule
	screenAddModule
	screenAddQuestion
	screenDeleteQuestion
	screenExport
	screenResetPassword
)

var screenNames = map[screen]string{
	screenWelcome:          "welcome",
	screenLoginUsername:    "login_username",
	screenLoginPassword:    "login_password",
	screenRegisterUsername: "register_username",
	screenRegisterPassword: "register_password",
	screenMenu:             "menu",
	screenPickModule:       "pick_module",
	screenQuiz:             "quiz",
	screenModerator:        "moderator",
	screenModPickModule:    "moderator_pick_module",
	screenAddModule:        "add_module",
	screenAddQuestion:      "add_question",
	screenDeleteQuestion:   "delete_question",
	screenExport:           "export",
	screenResetPassword:    "reset_password",
}

// takesText reports whether the screen reads a credential or a form field,
// where a literal "quit" is data rather than a command.
func (s screen) takesText() bool {
	switch s {
	case screenLoginUsername, screenLoginPassword,
		screenRegisterUsername, screenRegisterPassword,
		screenAddModule, screenAddQuestion, screenExport, screenResetPassword:
		return true
	}
	return false
}

// takesSecret reports whether the screen reads a password, which is used
// exactly as typed.
func (s *session) takesSecret() bool {
	switch s.screen {
	case screenLoginPassword, screenRegisterPassword:
		return true
	case screenResetPassword:
		return s.target != ""
	}
	return false
}

func (s screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return "unknown"
}

// modAction is the moderator task a module choice is for.
type modAction int

const (
	modAddQuestion modAction = iota + 1
	modDeleteQuestion
	modListQuestions
)

// questionDraft collects the add-question form one field per line.
type questionDraft struct {
	module string
	step   int // 0 text, 1-4 options, 5 correct letter
	input  manage.QuestionInput
}

type session struct {
	screen   screen
	user     *store.User
	username string // pending login or registration name

	modules []string // module names as last listed
	quiz    *quiz.Session

	action  modAction
	draft   questionDraft
	module  string
	listing []quiz.Question // questions as last shown for deletion
	target  string          // account whose password is being reset
}

func (s *session) reset() {
	*s = session{}
}

// toMenu clears transient state and returns to the main menu.
func (s *session) toMenu() {
	s.screen = screenMenu
	s.username = ""
	s.modules = nil
	s.quiz = nil
	s.action = 0
	s.draft = questionDraft{}
	s.module = ""
	s.listing = nil
	s.target = ""
}
