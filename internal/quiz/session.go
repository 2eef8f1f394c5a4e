package quiz

import (
	"math/rand/v2"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Presented is a question as shown to the player, with shuffled options.
type Presented struct {
	Number  int // 1-based position in the session
	Total   int
	Text    string
	Options []string
}

// Result is the outcome of a submitted answer.
type Result struct {
	Correct       bool
	CorrectOption string
	Done          bool
}

// Session is a single run through a module. It is not safe for concurrent use.
type Session struct {
	module    string
	questions []Question
	presented map[int][]string
	index     int
	score     int
	rng       *rand.Rand
}

// Start creates a session over a uniformly shuffled copy of questions.
// A nil rng uses a randomly seeded generator.
func Start(module string, questions []Question, rng *rand.Rand) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyModule
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	shuffled := make([]Question, len(questions))
	copy(shuffled, questions)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return &Session{
		module:    module,
		questions: shuffled,
		presented: make(map[int][]string),
		rng:       rng,
	}, nil
}

// Module returns the name of the module being played.
func (s *Session) Module() string { return s.module }

// Score returns the number of correct answers so far.
func (s *Session) Score() int { return s.score }

// Total returns the number of questions in the session.
func (s *Session) Total() int { return len(s.questions) }

// Index returns the zero-based index of the current question.
func (s *Session) Index() int { return s.index }

// Done reports whether every question has been answered.
func (s *Session) Done() bool { return s.index >= len(s.questions) }

// Perfect reports whether the finished session scored every question.
func (s *Session) Perfect() bool { return s.Done() && s.score == len(s.questions) }

// Current returns the current question with its options shuffled. The option
// order is fixed the first time a question is shown.
func (s *Session) Current() (Presented, error) {
	if s.Done() {
		return Presented{}, ErrSessionComplete
	}
	q := s.questions[s.index]

	opts, ok := s.presented[s.index]
	if !ok {
		opts = make([]string, len(q.Options))
		copy(opts, q.Options)
		s.rng.Shuffle(len(opts), func(i, j int) {
			opts[i], opts[j] = opts[j], opts[i]
		})
		s.presented[s.index] = opts
	}

	return Presented{
		Number:  s.index + 1,
		Total:   len(s.questions),
		Text:    q.Text,
		Options: append([]string(nil), opts...),
	}, nil
}

// Submit checks the selected option text against the current question and
// advances to the next one.
func (s *Session) Submit(selected string) (Result, error) {
	if s.Done() {
		return Result{}, ErrSessionComplete
	}
	q := s.questions[s.index]

	correct := SameOption(selected, q.CorrectOption())
	if correct {
		s.score++
	}
	s.index++

	return Result{
		Correct:       correct,
		CorrectOption: q.CorrectOption(),
		Done:          s.Done(),
	}, nil
}

// SameOption compares two option texts by content. Options with identical
// text are indistinguishable.
func SameOption(a, b string) bool {
	return norm.NFC.String(strings.TrimSpace(a)) == norm.NFC.String(strings.TrimSpace(b))
}
