package domain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DefaultCallTimeout bounds a single RPC when the manifest sets none.
const DefaultCallTimeout = 5 * time.Second

var (
	ErrInvalidManifest  = errors.New("invalid plugin manifest")
	ErrChecksumMismatch = errors.New("plugin checksum mismatch")
	ErrPluginTimeout    = errors.New("plugin timeout")
	ErrEventRejected    = errors.New("plugin rejected event")
)

// Manifest is one entry of the plugins file. Binary is absolute once loaded.
type Manifest struct {
	Name      string   `json:"name" yaml:"name"`
	Version   string   `json:"version" yaml:"version"`
	Binary    string   `json:"binary" yaml:"binary"`
	Args      []string `json:"args,omitempty" yaml:"args,omitempty"`
	SHA256    string   `json:"sha256" yaml:"sha256"`
	Enabled   bool     `json:"enabled" yaml:"enabled"`
	Events    []Kind   `json:"events" yaml:"events"`
	TimeoutMS int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// Validate reports every problem with the manifest at once, wrapped in
// ErrInvalidManifest.
func (m Manifest) Validate() error {
	var problems []error
	if strings.TrimSpace(m.Name) == "" {
		problems = append(problems, errors.New("name is required"))
	}
	if strings.TrimSpace(m.Version) == "" {
		problems = append(problems, errors.New("version is required"))
	}
	if strings.TrimSpace(m.Binary) == "" {
		problems = append(problems, errors.New("binary is required"))
	}
	if !isSHA256(m.SHA256) {
		problems = append(problems, errors.New("sha256 must be 64 lowercase hex characters"))
	}
	if m.TimeoutMS < 0 {
		problems = append(problems, errors.New("timeout_ms must be non-negative"))
	}
	if len(m.Events) == 0 {
		problems = append(problems, errors.New("at least one event is required"))
	}
	for i, kind := range m.Events {
		if err := kind.Validate(); err != nil {
			problems = append(problems, err)
		} else if slices.Contains(m.Events[:i], kind) {
			problems = append(problems, fmt.Errorf("duplicate event: %s", kind))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	label := m.Name
	if label == "" {
		label = "<unnamed>"
	}
	return fmt.Errorf("%w %s: %w", ErrInvalidManifest, label, errors.Join(problems...))
}

// Subscribed reports whether the plugin wants events of kind.
func (m Manifest) Subscribed(kind Kind) bool {
	return slices.Contains(m.Events, kind)
}

func (m Manifest) CallTimeout() time.Duration {
	if m.TimeoutMS <= 0 {
		return DefaultCallTimeout
	}
	return time.Duration(m.TimeoutMS) * time.Millisecond
}

func isSHA256(s string) bool {
	if len(s) != 64 || strings.ToLower(s) != s {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Descriptor is what a running plugin says about itself.
type Descriptor struct {
	Name    string
	Version string
	Events  []Kind
}

// Check compares the descriptor with the manifest that launched the plugin.
// A plugin may handle more events than it is subscribed to, never fewer.
func (d Descriptor) Check(m Manifest) error {
	if d.Name != m.Name {
		return fmt.Errorf("plugin reports name %q, manifest says %q", d.Name, m.Name)
	}
	if d.Version != m.Version {
		return fmt.Errorf("plugin reports version %q, manifest says %q", d.Version, m.Version)
	}
	for _, kind := range m.Events {
		if !slices.Contains(d.Events, kind) {
			return fmt.Errorf("plugin does not handle %s events", kind)
		}
	}
	return nil
}
