package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind names a hook event. Manifests subscribe to kinds.
type Kind string

const (
	KindRotation     Kind = "rotation"
	KindNotification Kind = "notification"
)

func (k Kind) Validate() error {
	switch k {
	case KindRotation, KindNotification:
		return nil
	default:
		return fmt.Errorf("unknown event kind: %q", string(k))
	}
}

// Event is delivered to every enabled plugin subscribed to its kind.
type Event struct {
	Kind           Kind
	OccurredAt     time.Time
	Previous       string
	Next           string
	ElapsedSeconds int
	Message        string
}

func (e Event) Validate() error {
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if e.OccurredAt.IsZero() {
		return errors.New("event time is required")
	}
	if e.Kind == KindRotation && e.ElapsedSeconds < 0 {
		return errors.New("elapsed seconds must be non-negative")
	}
	if e.Kind == KindNotification && strings.TrimSpace(e.Message) == "" {
		return errors.New("notification message is required")
	}
	return nil
}

// Receipt is a plugin's answer to a delivered event.
type Receipt struct {
	Accepted bool
	Detail   string
}
