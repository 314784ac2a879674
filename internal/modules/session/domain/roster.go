package domain

import "strings"

const (
	avatarBaseURL     = "https://github.com/"
	FallbackAvatarURL = "https://github.com/ghost.png"
)

// User is one mob participant. AvatarFailed is ephemeral display state and
// never part of a snapshot.
type User struct {
	Username     string
	AvatarFailed bool
}

func AvatarURL(username string) string {
	return avatarBaseURL + username + ".png"
}

// Avatar returns the avatar to render, honoring a previous load failure.
func (u User) Avatar() string {
	if u.AvatarFailed {
		return FallbackAvatarURL
	}
	return AvatarURL(u.Username)
}

// Rotate moves the head participant to the tail. Lists shorter than two are
// returned unchanged.
func Rotate(users []User) []User {
	if len(users) < 2 {
		return users
	}
	out := make([]User, 0, len(users))
	out = append(out, users[1:]...)
	return append(out, users[0])
}

// AddUser appends the trimmed username when it is non-empty and not already
// present (case-sensitive). ok reports whether the list changed.
func AddUser(users []User, input string) ([]User, bool) {
	username := strings.TrimSpace(input)
	if username == "" || HasUser(users, username) {
		return users, false
	}
	out := make([]User, 0, len(users)+1)
	out = append(out, users...)
	return append(out, User{Username: username}), true
}

// RemoveUser filters out every user with the given username.
func RemoveUser(users []User, username string) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if u.Username != username {
			out = append(out, u)
		}
	}
	return out
}

func HasUser(users []User, username string) bool {
	for _, u := range users {
		if u.Username == username {
			return true
		}
	}
	return false
}

// Permute reorders users by order, where order[i] is the index of the user
// placed at position i. Orders that are not a permutation of len(users) are
// rejected.
func Permute(users []User, order []int) ([]User, bool) {
	if len(order) != len(users) {
		return users, false
	}
	seen := make([]bool, len(users))
	out := make([]User, len(users))
	for i, idx := range order {
		if idx < 0 || idx >= len(users) || seen[idx] {
			return users, false
		}
		seen[idx] = true
		out[i] = users[idx]
	}
	return out, true
}

func markAvatarFailed(users []User, username string) []User {
	out := make([]User, len(users))
	copy(out, users)
	for i := range out {
		if out[i].Username == username {
			out[i].AvatarFailed = true
		}
	}
	return out
}
