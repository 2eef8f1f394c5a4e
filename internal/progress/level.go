package progress

import "math"

// LevelFor maps experience points to a player level: 1 for xp <= 0,
// otherwise floor((xp/100)^(1/1.5)) + 1.
func LevelFor(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Floor(math.Pow(float64(xp)/100, 1/1.5))) + 1
}

// XPForLevel returns the smallest xp that reaches level. Levels below 2
// need no experience.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	xp := int(math.Ceil(100 * math.Pow(float64(level-1), 1.5)))
	// Correct floating point drift at exact boundaries.
	for xp > 0 && LevelFor(xp-1) >= level {
		xp--
	}
	for LevelFor(xp) < level {
		xp++
	}
	return xp
}
