package quiz_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

func sampleQuestions() []quiz.Question {
	return []quiz.Question{
		{ID: "q1", Text: "2 + 2?", Options: []string{"3", "4", "5", "22"}, Correct: 1},
		{ID: "q2", Text: "Sky colour?", Options: []string{"green", "blue", "red", "black"}, Correct: 1},
		{ID: "q3", Text: "Sprint length?", Options: []string{"1 day", "2 weeks", "1 year", "never"}, Correct: 1},
	}
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestStart_EmptyModule(t *testing.T) {
	_, err := quiz.Start("Empty", nil, nil)
	if !errors.Is(err, quiz.ErrEmptyModule) {
		t.Fatalf("Start() error = %v, want ErrEmptyModule", err)
	}
}

func TestStart_DoesNotMutateInput(t *testing.T) {
	qs := sampleQuestions()
	if _, err := quiz.Start("M", qs, seeded(1)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for i, q := range sampleQuestions() {
		if qs[i].ID != q.ID {
			t.Errorf("input[%d].ID = %q, want %q", i, qs[i].ID, q.ID)
		}
	}
}

func TestStart_PermutationCoversAllOrders(t *testing.T) {
	qs := sampleQuestions()
	seen := map[string]int{}
	for seed := uint64(0); seed < 600; seed++ {
		s, err := quiz.Start("M", qs, seeded(seed))
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		order := ""
		for !s.Done() {
			p, _ := s.Current()
			order += p.Text + "|"
			if _, err := s.Submit(""); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
		}
		seen[order]++
	}
	if len(seen) != 6 {
		t.Errorf("distinct orderings = %d, want 6 (3!)", len(seen))
	}
	for order, n := range seen {
		if n < 50 {
			t.Errorf("ordering %q seen %d times, want roughly 100", order, n)
		}
	}
}

func TestSession_ScoresAndCompletes(t *testing.T) {
	s, err := quiz.Start("M", sampleQuestions(), seeded(7))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	byText := map[string]quiz.Question{}
	for _, q := range sampleQuestions() {
		byText[q.Text] = q
	}

	for i := 0; i < 3; i++ {
		p, err := s.Current()
		if err != nil {
			t.Fatalf("Current() error = %v", err)
		}
		if p.Number != i+1 || p.Total != 3 {
			t.Errorf("Number/Total = %d/%d, want %d/3", p.Number, p.Total, i+1)
		}
		answer := byText[p.Text].CorrectOption()
		if i == 2 {
			answer = "definitely wrong"
		}
		res, err := s.Submit(answer)
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if res.Correct != (i != 2) {
			t.Errorf("answer %d Correct = %v", i, res.Correct)
		}
		if res.Done != (i == 2) {
			t.Errorf("answer %d Done = %v", i, res.Done)
		}
	}

	if s.Score() != 2 || s.Total() != 3 {
		t.Errorf("Score/Total = %d/%d, want 2/3", s.Score(), s.Total())
	}
	if s.Perfect() {
		t.Error("Perfect() = true, want false")
	}
	if _, err := s.Current(); !errors.Is(err, quiz.ErrSessionComplete) {
		t.Errorf("Current() after completion error = %v, want ErrSessionComplete", err)
	}
	if _, err := s.Submit("4"); !errors.Is(err, quiz.ErrSessionComplete) {
		t.Errorf("Submit() after completion error = %v, want ErrSessionComplete", err)
	}
	if s.Score() != 2 {
		t.Errorf("Score() changed after completion: %d", s.Score())
	}
}

func TestSession_OptionShuffleDoesNotAffectCorrectness(t *testing.T) {
	q := quiz.Question{Text: "Pick", Options: []string{"a", "b", "c", "d"}, Correct: 2}
	for seed := uint64(0); seed < 50; seed++ {
		s, _ := quiz.Start("M", []quiz.Question{q}, seeded(seed))
		p, _ := s.Current()
		again, _ := s.Current()
		for i := range p.Options {
			if p.Options[i] != again.Options[i] {
				t.Fatalf("option order changed between renders: %v vs %v", p.Options, again.Options)
			}
		}
		res, _ := s.Submit("c")
		if !res.Correct {
			t.Fatalf("seed %d: Submit(c) Correct = false with options %v", seed, p.Options)
		}
	}
}

func TestSession_DuplicateOptionTextIsEquivalent(t *testing.T) {
	q := quiz.Question{Text: "Dup", Options: []string{"yes", "no", "yes", "maybe"}, Correct: 0}
	s, _ := quiz.Start("M", []quiz.Question{q}, seeded(3))
	res, _ := s.Submit("yes")
	if !res.Correct {
		t.Error("Submit(yes) Correct = false, want true for duplicate option text")
	}
}

func TestSameOption_Normalizes(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"4", "4", true},
		{" 4 ", "4", true},
		{"caf\u00e9", "cafe\u0301", true},
		{"4", "5", false},
	}
	for _, tt := range tests {
		if got := quiz.SameOption(tt.a, tt.b); got != tt.want {
			t.Errorf("SameOption(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
