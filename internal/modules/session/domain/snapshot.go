package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Snapshot is the persisted subset of State. The JSON shape is versionless.
type Snapshot struct {
	Users               []SnapshotUser `json:"users"`
	EnabledSound        bool           `json:"enabledSound"`
	EnabledNotification bool           `json:"enabledNotification"`
	IntervalSeconds     int            `json:"intervalSeconds"`
}

type SnapshotUser struct {
	Username string `json:"username"`
}

// DefaultSnapshot is used whenever no valid snapshot exists.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Users:               []SnapshotUser{},
		EnabledSound:        true,
		EnabledNotification: false,
		IntervalSeconds:     DefaultIntervalSeconds,
	}
}

func (s Snapshot) Equal(other Snapshot) bool {
	if s.EnabledSound != other.EnabledSound ||
		s.EnabledNotification != other.EnabledNotification ||
		s.IntervalSeconds != other.IntervalSeconds ||
		len(s.Users) != len(other.Users) {
		return false
	}
	for i := range s.Users {
		if s.Users[i] != other.Users[i] {
			return false
		}
	}
	return true
}

func EncodeSnapshot(s Snapshot) ([]byte, error) {
	if s.Users == nil {
		s.Users = []SnapshotUser{}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

type wireSnapshot struct {
	Users               *[]wireUser `json:"users"`
	EnabledSound        *bool       `json:"enabledSound"`
	EnabledNotification *bool       `json:"enabledNotification"`
	IntervalSeconds     *int        `json:"intervalSeconds"`
}

type wireUser struct {
	Username *string `json:"username"`
}

// DecodeSnapshot is all-or-nothing: trailing data, any malformed or missing
// required field fails the whole decode. enabledNotification is optional and defaults to
// false. Duplicate usernames keep their first occurrence.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var wire wireSnapshot
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if wire.Users == nil || wire.EnabledSound == nil || wire.IntervalSeconds == nil {
		return Snapshot{}, fmt.Errorf("%w: missing required field", ErrMalformedSnapshot)
	}
	if *wire.IntervalSeconds < 0 {
		return Snapshot{}, fmt.Errorf("%w: negative interval", ErrMalformedSnapshot)
	}
	if *wire.IntervalSeconds > MaxIntervalSeconds {
		return Snapshot{}, fmt.Errorf("%w: interval above %d seconds", ErrMalformedSnapshot, MaxIntervalSeconds)
	}

	out := Snapshot{
		Users:           make([]SnapshotUser, 0, len(*wire.Users)),
		EnabledSound:    *wire.EnabledSound,
		IntervalSeconds: *wire.IntervalSeconds,
	}
	if wire.EnabledNotification != nil {
		out.EnabledNotification = *wire.EnabledNotification
	}
	seen := map[string]struct{}{}
	for _, u := range *wire.Users {
		if u.Username == nil || strings.TrimSpace(*u.Username) == "" {
			return Snapshot{}, fmt.Errorf("%w: blank username", ErrMalformedSnapshot)
		}
		name := strings.TrimSpace(*u.Username)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out.Users = append(out.Users, SnapshotUser{Username: name})
	}
	return out, nil
}

// DecodeSnapshotOrDefault never fails; malformed input yields the defaults.
func DecodeSnapshotOrDefault(raw []byte) (Snapshot, error) {
	s, err := DecodeSnapshot(raw)
	if err != nil {
		return DefaultSnapshot(), err
	}
	return s, nil
}
