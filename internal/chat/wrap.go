package chat

import (
	"strings"
	"unicode/utf8"
)

// WrapText breaks text into lines of at most width runes, preferring word
// boundaries. Existing line breaks are kept; words longer than width are
// split.
func WrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if width <= 0 {
		return strings.Split(text, "\n")
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var line strings.Builder
		lineLen := 0
		for _, w := range words {
			for utf8.RuneCountInString(w) > width {
				if lineLen > 0 {
					lines = append(lines, line.String())
					line.Reset()
					lineLen = 0
				}
				head, rest := splitRunes(w, width)
				lines = append(lines, head)
				w = rest
			}
			n := utf8.RuneCountInString(w)
			if n == 0 {
				continue
			}
			if lineLen > 0 && lineLen+1+n > width {
				lines = append(lines, line.String())
				line.Reset()
				lineLen = 0
			}
			if lineLen > 0 {
				line.WriteByte(' ')
				lineLen++
			}
			line.WriteString(w)
			lineLen += n
		}
		if lineLen > 0 {
			lines = append(lines, line.String())
		}
	}
	return lines
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
