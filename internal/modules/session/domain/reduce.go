package domain

import (
	"fmt"
	"time"
)

// Reduce applies one event and returns the next state plus the signals the
// runtime must act on. It never reads the clock or a random source; those
// arrive as ClockRead and Shuffled events.
func Reduce(state State, event Event) (State, []Signal) {
	before := state.Snapshot()
	next, signals := apply(state, event)
	if after := next.Snapshot(); !after.Equal(before) {
		signals = append(signals, PersistSnapshot{Snapshot: after})
	}
	return next, signals
}

func apply(state State, event Event) (State, []Signal) {
	switch e := event.(type) {
	case StartRequested:
		transition := TransitionStart
		if state.Active {
			transition = TransitionStay
		}
		state.Active = true
		return state, []Signal{RequestNow{Transition: transition}}

	case StopRequested:
		transition := TransitionStop
		if !state.Active {
			transition = TransitionStay
		}
		state.Active = false
		return state, []Signal{RequestNow{Transition: transition}}

	case ClockRead:
		state.Moment = e.At
		switch e.Transition {
		case TransitionStart:
			state.Durations = StartNew(state.Durations, e.At)
			return state, nil
		case TransitionStop:
			state.Durations = ExtendLatest(state.Durations, e.At)
			return state, nil
		default:
			return stay(state, e.At)
		}

	case Tick:
		if !state.Active {
			return state, nil
		}
		state.Moment = e.At
		return stay(state, e.At)

	case Reset:
		state.Active = false
		state.Durations = nil
		return state, nil

	case EditDraft:
		state.Draft = e.Text
		return state, nil

	case AddParticipant:
		users, ok := AddUser(state.Users, state.Draft)
		if ok {
			state.Users = users
			state.Draft = ""
		}
		return state, nil

	case RemoveParticipant:
		state.Users = RemoveUser(state.Users, e.Username)
		return state, nil

	case ShuffleRequested:
		if state.Active || len(state.Users) < 2 {
			return state, nil
		}
		return state, []Signal{RequestShuffle{Count: len(state.Users)}}

	case Shuffled:
		if state.Active {
			return state, nil
		}
		if users, ok := Permute(state.Users, e.Order); ok {
			state.Users = users
		}
		return state, nil

	case EditInterval:
		state.IntervalSeconds = EditIntervalField(state.IntervalSeconds, e.Field, e.Raw)
		return state, nil

	case SetSound:
		state.SoundEnabled = e.Enabled
		return state, nil

	case SetNotification:
		state.NotificationEnabled = e.Enabled
		return state, nil

	case AvatarLoadFailed:
		state.Users = markAvatarFailed(state.Users, e.Username)
		return state, nil
	}
	return state, nil
}

// stay handles a same-state transition or a tick: the open interval is
// extended while Active, then the rotation threshold is checked, also while
// Idle. A session with no tracked interval never rotates, even with a zero
// threshold: there is no driver turn to end.
func stay(state State, at time.Time) (State, []Signal) {
	if state.Active {
		state.Durations = ExtendLatest(state.Durations, at)
	}
	if len(state.Durations) == 0 {
		return state, nil
	}
	elapsed := ElapsedSeconds(state.Durations)
	if elapsed < state.IntervalSeconds {
		return state, nil
	}
	return rotate(state, elapsed, at)
}

func rotate(state State, elapsed int, at time.Time) (State, []Signal) {
	previous, _ := state.Driver()
	state.Active = false
	state.Users = Rotate(state.Users)
	state.Durations = nil
	next, _ := state.Driver()

	signals := []Signal{Rotated{
		Previous:       previous.Username,
		Next:           next.Username,
		ElapsedSeconds: elapsed,
		At:             at,
	}}
	if state.SoundEnabled {
		signals = append(signals, PlaySound{Asset: state.SoundAsset})
	}
	if state.NotificationEnabled {
		signals = append(signals, PostNotification{Message: RotationMessage(next.Username), At: at})
	}
	return state, signals
}

// RotationMessage is the notification text announcing the next driver.
func RotationMessage(next string) string {
	if next == "" {
		return "Time to rotate!"
	}
	return fmt.Sprintf("%s, you're up! Time to rotate.", next)
}
