package domain

import "time"

// Transition classifies a start/stop request against the current state.
type Transition string

const (
	TransitionStart Transition = "start"
	TransitionStop  Transition = "stop"
	TransitionStay  Transition = "stay"
)

// Event is one input to Reduce. The set is closed.
type Event interface {
	isEvent()
}

type StartRequested struct{}

type StopRequested struct{}

// ClockRead carries the clock reading requested by RequestNow.
type ClockRead struct {
	Transition Transition
	At         time.Time
}

// Tick is the periodic clock signal delivered while Active.
type Tick struct {
	At time.Time
}

type Reset struct{}

type EditDraft struct {
	Text string
}

// AddParticipant adds the current Draft.
type AddParticipant struct{}

type RemoveParticipant struct {
	Username string
}

type ShuffleRequested struct{}

// Shuffled carries the permutation requested by RequestShuffle.
type Shuffled struct {
	Order []int
}

type EditInterval struct {
	Field Field
	Raw   string
}

type SetSound struct {
	Enabled bool
}

type SetNotification struct {
	Enabled bool
}

type AvatarLoadFailed struct {
	Username string
}

func (StartRequested) isEvent()    {}
func (StopRequested) isEvent()     {}
func (ClockRead) isEvent()         {}
func (Tick) isEvent()              {}
func (Reset) isEvent()             {}
func (EditDraft) isEvent()         {}
func (AddParticipant) isEvent()    {}
func (RemoveParticipant) isEvent() {}
func (ShuffleRequested) isEvent()  {}
func (Shuffled) isEvent()          {}
func (EditInterval) isEvent()      {}
func (SetSound) isEvent()          {}
func (SetNotification) isEvent()   {}
func (AvatarLoadFailed) isEvent()  {}

// Signal is one output of Reduce. RequestNow and RequestShuffle ask the
// runtime for a value that re-enters as ClockRead or Shuffled; the others are
// side effects for external collaborators.
type Signal interface {
	isSignal()
}

type RequestNow struct {
	Transition Transition
}

type RequestShuffle struct {
	Count int
}

type PersistSnapshot struct {
	Snapshot Snapshot
}

type PlaySound struct {
	Asset string
}

type PostNotification struct {
	Message string
	At      time.Time
}

// Rotated is emitted on every rotation regardless of the alert flags.
type Rotated struct {
	Previous       string
	Next           string
	ElapsedSeconds int
	At             time.Time
}

func (RequestNow) isSignal()       {}
func (RequestShuffle) isSignal()   {}
func (PersistSnapshot) isSignal()  {}
func (PlaySound) isSignal()        {}
func (PostNotification) isSignal() {}
func (Rotated) isSignal()          {}
