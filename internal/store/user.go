package store

import "slices"

// User is a persisted player account.
type User struct {
	Username     string   `json:"-"`
	PasswordHash string   `json:"pw"`
	Moderator    bool     `json:"moderator"`
	XP           int      `json:"xp"`
	Unlocked     []string `json:"unlocked"`
	Achievements []string `json:"achievements"`
	Correct      int      `json:"correct"`
	Wrong        int      `json:"wrong"`
}

// HasAchievement reports whether the user holds the achievement.
func (u *User) HasAchievement(id string) bool {
	return slices.Contains(u.Achievements, id)
}

// GrantAchievement adds id to the user's achievements. It returns false and
// leaves the set unchanged when the achievement is already held.
func (u *User) GrantAchievement(id string) bool {
	if u.HasAchievement(id) {
		return false
	}
	u.Achievements = append(u.Achievements, id)
	return true
}

// IsUnlocked reports whether the module is accessible to the user.
func (u *User) IsUnlocked(module string) bool {
	return slices.Contains(u.Unlocked, module)
}

// Unlock adds module to the unlocked set and reports whether it was new.
func (u *User) Unlock(module string) bool {
	if u.IsUnlocked(module) {
		return false
	}
	u.Unlocked = append(u.Unlocked, module)
	return true
}

// Clone returns a deep copy so stores never share slices with callers.
func (u User) Clone() User {
	u.Unlocked = slices.Clone(u.Unlocked)
	u.Achievements = slices.Clone(u.Achievements)
	if u.Unlocked == nil {
		u.Unlocked = []string{}
	}
	if u.Achievements == nil {
		u.Achievements = []string{}
	}
	return u
}
