package dto

import "time"

// Event kinds accepted by Publish.
const (
	KindRotation     = "rotation"
	KindNotification = "notification"
)

type PluginInfo struct {
	Name      string
	Version   string
	Enabled   bool
	Binary    string
	Events    []string
	TimeoutMS int
}

// DoctorResult is the health of one manifest entry. Stages run in order
// and stop at the first failure, which Error describes.
type DoctorResult struct {
	Name            string
	Enabled         bool
	ManifestValid   bool
	BinaryReachable bool
	ChecksumValid   bool
	HandshakeOK     bool
	Reported        string
	Error           string
}

// Healthy reports whether every stage passed. Disabled plugins are never
// launched, so their handshake is not required.
func (r DoctorResult) Healthy() bool {
	ok := r.ManifestValid && r.BinaryReachable && r.ChecksumValid
	if r.Enabled {
		ok = ok && r.HandshakeOK
	}
	return ok && r.Error == ""
}

type PublishInput struct {
	Kind           string
	OccurredAt     time.Time
	Previous       string
	Next           string
	ElapsedSeconds int
	Message        string
}

type DeliveryResult struct {
	Plugin   string
	Accepted bool
	Detail   string
	Error    string
	Duration time.Duration
}
