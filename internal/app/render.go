package app

import (
	"fmt"
	"strings"

	"github.com/p-n-ai/pai-quiz/internal/catalog"
	"github.com/p-n-ai/pai-quiz/internal/leaderboard"
	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

// blocks joins non-empty text blocks with a blank line.
func blocks(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimRight(p, "\n"); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

func welcomeText(notice string) string {
	return blocks(notice, `=== Quiz ===
1) Log in
2) Register
Type quit to exit.`)
}

func menuText(u *store.User, moderator bool, notice string) string {
	var b strings.Builder
	level := progress.LevelFor(u.XP)
	fmt.Fprintf(&b, "=== %s | Level %d | %d XP ===\n", u.Username, level, u.XP)
	b.WriteString("1) Start quiz\n2) Stats\n3) Leaderboard\n4) Achievements\n")
	if moderator {
		b.WriteString("5) Moderator tools\n")
	}
	b.WriteString("9) Log out")
	return blocks(notice, b.String())
}

func statsText(u *store.User) string {
	var b strings.Builder
	level := progress.LevelFor(u.XP)
	fmt.Fprintf(&b, "Stats for %s\n", u.Username)
	fmt.Fprintf(&b, "Level: %d\n", level)
	fmt.Fprintf(&b, "XP: %d (next level at %d)\n", u.XP, progress.XPForLevel(level+1))
	fmt.Fprintf(&b, "Correct answers: %d\n", u.Correct)
	fmt.Fprintf(&b, "Wrong answers: %d\n", u.Wrong)
	fmt.Fprintf(&b, "Unlocked modules: %s\n", listOrNone(u.Unlocked))
	fmt.Fprintf(&b, "Achievements: %d", len(u.Achievements))
	return b.String()
}

func leaderboardText(entries []leaderboard.Entry, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d\n", n)
	if len(entries) == 0 {
		b.WriteString("No players yet.")
		return b.String()
	}
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s  Level %d  %d XP", e.Rank, e.Username, e.Level, e.XP)
	}
	return b.String()
}

func achievementsText(u *store.User, cat *catalog.Catalog, modules []string) string {
	var b strings.Builder
	b.WriteString("Achievements")
	line := func(a catalog.Achievement) {
		mark := "[ ]"
		if u.HasAchievement(a.ID) {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "\n%s %s", mark, a.Name)
		if a.Description != "" {
			fmt.Fprintf(&b, " - %s", a.Description)
		}
	}
	for _, a := range cat.All() {
		line(a)
	}
	for _, m := range modules {
		if a, ok := cat.Lookup(catalog.PerfectionID(m)); ok {
			line(a)
		}
	}
	return b.String()
}

func moduleListText(title string, names []string, u *store.User) string {
	var b strings.Builder
	b.WriteString(title)
	for i, name := range names {
		fmt.Fprintf(&b, "\n%d) %s", i+1, name)
		if u != nil && !u.IsUnlocked(name) {
			b.WriteString(" (locked)")
		}
	}
	b.WriteString("\n0) Back")
	return b.String()
}

func questionText(p quiz.Presented) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d/%d\n%s", p.Number, p.Total, p.Text)
	for i, opt := range p.Options {
		fmt.Fprintf(&b, "\n  %s) %s", quiz.OptionLetter(i), opt)
	}
	b.WriteString("\nAnswer with A-D.")
	return b.String()
}

func questionListText(module string, qs []quiz.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Questions in %s", module)
	if len(qs) == 0 {
		b.WriteString("\nNo questions.")
		return b.String()
	}
	for i, q := range qs {
		fmt.Fprintf(&b, "\n%d) %s [%s]", i+1, q.Text, q.CorrectOption())
	}
	return b.String()
}

func outcomeText(score, total int, out progress.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quiz complete: %d/%d correct.", score, total)
	if out.Perfect {
		b.WriteString(" Perfect score!")
	}
	for _, a := range out.Granted {
		fmt.Fprintf(&b, "\nAchievement unlocked: %s", a.Name)
	}
	if out.Unlocked != "" {
		fmt.Fprintf(&b, "\nNew module unlocked: %s", out.Unlocked)
	}
	fmt.Fprintf(&b, "\nYou are level %d.", out.Level)
	return b.String()
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
