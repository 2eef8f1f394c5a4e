// Package quiz holds the question model and the ephemeral quiz session.
package quiz

import (
	"strings"
)

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// Question is a single multiple-choice question.
type Question struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Text    string   `json:"question" yaml:"question"`
	Options []string `json:"options" yaml:"options"`
	Correct int      `json:"correct" yaml:"correct"`
}

// Module is a named, ordered collection of questions.
type Module struct {
	Name      string     `json:"name" yaml:"name"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Validate checks a question: non-empty text, exactly four
// non-empty options and a correct index in [0,3].
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return &ValidationError{Field: "question", Message: "question text is required"}
	}
	if len(q.Options) != OptionCount {
		return &ValidationError{Field: "options", Message: "exactly 4 options are required"}
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return &ValidationError{Field: "options", Message: "options must not be empty"}
		}
	}
	if q.Correct < 0 || q.Correct >= OptionCount {
		return &ValidationError{Field: "correct", Message: "correct option must be A, B, C or D"}
	}
	return nil
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return ""
	}
	return q.Options[q.Correct]
}

// ParseCorrectLetter converts "A".."D" (any case) into an option index.
func ParseCorrectLetter(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 || s[0] < 'A' || s[0] > 'D' {
		return 0, &ValidationError{Field: "correct", Message: "correct option must be A, B, C or D"}
	}
	return int(s[0] - 'A'), nil
}

// OptionLetter returns the display letter for an option index.
func OptionLetter(i int) string {
	if i < 0 || i >= OptionCount {
		return "?"
	}
	return string(rune('A' + i))
}
