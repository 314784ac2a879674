package dto

import "time"

type ParticipantOutput struct {
	Username  string
	AvatarURL string
	Role      string
}

type StatusOutput struct {
	Active              bool
	ElapsedSeconds      int
	Elapsed             string
	RemainingSeconds    int
	Remaining           string
	IntervalSeconds     int
	Interval            string
	Intervals           int
	Participants        []ParticipantOutput
	SoundEnabled        bool
	NotificationEnabled bool
}

type AddParticipantInput struct {
	Username string
}

type IntervalInput struct {
	Hours   string
	Minutes string
	Seconds string
}

type IntervalFieldInput struct {
	Field string
	Value string
}

type RotationOutput struct {
	ID             string
	RotatedAt      time.Time
	Previous       string
	Next           string
	ElapsedSeconds int
	Elapsed        string
}

type ExportOutput struct {
	Path      string
	Rotations int
}

type ProbeOutput struct {
	Checked int
	Failed  []string
}
