package quiz_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

func TestQuestion_Validate(t *testing.T) {
	valid := quiz.Question{Text: "Q", Options: []string{"a", "b", "c", "d"}, Correct: 3}

	tests := []struct {
		name      string
		mutate    func(q *quiz.Question)
		wantField string
	}{
		{"valid", func(q *quiz.Question) {}, ""},
		{"empty text", func(q *quiz.Question) { q.Text = "  " }, "question"},
		{"three options", func(q *quiz.Question) { q.Options = q.Options[:3] }, "options"},
		{"blank option", func(q *quiz.Question) { q.Options = []string{"a", "", "c", "d"} }, "options"},
		{"correct too high", func(q *quiz.Question) { q.Correct = 4 }, "correct"},
		{"correct negative", func(q *quiz.Question) { q.Correct = -1 }, "correct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			q.Options = append([]string(nil), valid.Options...)
			tt.mutate(&q)

			err := q.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, quiz.ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			var ve *quiz.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.wantField {
				t.Errorf("Validate() field = %v, want %q", err, tt.wantField)
			}
		})
	}
}

func TestParseCorrectLetter(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"A", 0, false},
		{"b", 1, false},
		{" C ", 2, false},
		{"d", 3, false},
		{"E", 0, true},
		{"", 0, true},
		{"AB", 0, true},
	}
	for _, tt := range tests {
		got, err := quiz.ParseCorrectLetter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCorrectLetter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCorrectLetter(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
