package domain

import "time"

const DefaultIntervalSeconds = 30 * 60

// State is the authoritative session state. Durations, Moment, Draft and the
// avatar flags on Users are never persisted.
type State struct {
	IntervalSeconds     int
	Active              bool
	Moment              time.Time
	Durations           Durations
	Users               []User
	SoundEnabled        bool
	NotificationEnabled bool
	Draft               string
	SoundAsset          string
}

// NewState builds the start-of-process state from a loaded snapshot.
func NewState(snapshot Snapshot, soundAsset string) State {
	users := make([]User, 0, len(snapshot.Users))
	for _, u := range snapshot.Users {
		users = append(users, User{Username: u.Username})
	}
	return State{
		IntervalSeconds:     snapshot.IntervalSeconds,
		Users:               users,
		SoundEnabled:        snapshot.EnabledSound,
		NotificationEnabled: snapshot.EnabledNotification,
		SoundAsset:          soundAsset,
	}
}

// Snapshot extracts the persisted subset of the state.
func (s State) Snapshot() Snapshot {
	users := make([]SnapshotUser, 0, len(s.Users))
	for _, u := range s.Users {
		users = append(users, SnapshotUser{Username: u.Username})
	}
	return Snapshot{
		Users:               users,
		EnabledSound:        s.SoundEnabled,
		EnabledNotification: s.NotificationEnabled,
		IntervalSeconds:     s.IntervalSeconds,
	}
}

func (s State) ElapsedSeconds() int {
	return ElapsedSeconds(s.Durations)
}

// RemainingSeconds is the time left before the next rotation, never negative.
func (s State) RemainingSeconds() int {
	remaining := s.IntervalSeconds - s.ElapsedSeconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Driver returns the current driver, if any.
func (s State) Driver() (User, bool) {
	if len(s.Users) == 0 {
		return User{}, false
	}
	return s.Users[0], true
}

// Navigator returns the participant after the driver, if any.
func (s State) Navigator() (User, bool) {
	if len(s.Users) < 2 {
		return User{}, false
	}
	return s.Users[1], true
}
