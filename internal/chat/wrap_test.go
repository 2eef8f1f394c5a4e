package chat_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/p-n-ai/pai-quiz/internal/chat"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"short", "Hello", 72, []string{"Hello"}},
		{"exact", "Hello", 5, []string{"Hello"}},
		{"split-needed", "Hello World, this is a test", 10, []string{"Hello", "World,", "this is a", "test"}},
		{"keeps newlines", "a\n\nb", 10, []string{"a", "", "b"}},
		{"long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"empty", "", 72, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chat.WrapText(tt.text, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("WrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapText_LinesNotExceedWidth(t *testing.T) {
	text := "Zażółć gęślą jaźń, this is a longer line that needs wrapping for the console."
	width := 12
	for i, line := range chat.WrapText(text, width) {
		if n := utf8.RuneCountInString(line); n > width {
			t.Errorf("line[%d] has %d runes, exceeds width %d: %q", i, n, width, line)
		}
	}
}
