package progress_test

import (
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/progress"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{-50, 1},
		{0, 1},
		{1, 1},
		{99, 1},
		{100, 2},
		{282, 2},
		{283, 3},
		{520, 4},
		{900, 5},
		{10000, 22},
	}

	for _, tt := range tests {
		if got := progress.LevelFor(tt.xp); got != tt.want {
			t.Errorf("LevelFor(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelFor_Monotonic(t *testing.T) {
	prev := progress.LevelFor(0)
	for xp := 1; xp <= 20000; xp++ {
		got := progress.LevelFor(xp)
		if got < prev {
			t.Fatalf("LevelFor(%d) = %d < LevelFor(%d) = %d", xp, got, xp-1, prev)
		}
		prev = got
	}
}

func TestXPForLevel(t *testing.T) {
	if got := progress.XPForLevel(1); got != 0 {
		t.Errorf("XPForLevel(1) = %d, want 0", got)
	}
	for level := 2; level <= 30; level++ {
		xp := progress.XPForLevel(level)
		if progress.LevelFor(xp) != level {
			t.Errorf("LevelFor(XPForLevel(%d)) = %d, want %d", level, progress.LevelFor(xp), level)
		}
		if progress.LevelFor(xp-1) >= level {
			t.Errorf("XPForLevel(%d) = %d is not the smallest xp for the level", level, xp)
		}
	}
}
