package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"mobtime/internal/modules/plugin/domain"
)

const validSHA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func validManifest() domain.Manifest {
	return domain.Manifest{
		Name:    "p",
		Version: "1",
		Binary:  "/tmp/p",
		SHA256:  validSHA,
		Enabled: true,
		Events:  []domain.Kind{domain.KindRotation},
	}
}

func TestManifestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(*domain.Manifest)
		want   string
	}{
		{name: "valid", mutate: func(*domain.Manifest) {}},
		{name: "missing name", mutate: func(m *domain.Manifest) { m.Name = " " }, want: "name is required"},
		{name: "missing version", mutate: func(m *domain.Manifest) { m.Version = "" }, want: "version is required"},
		{name: "missing binary", mutate: func(m *domain.Manifest) { m.Binary = "" }, want: "binary is required"},
		{name: "uppercase sha", mutate: func(m *domain.Manifest) { m.SHA256 = "A" + validSHA[1:] }, want: "sha256"},
		{name: "short sha", mutate: func(m *domain.Manifest) { m.SHA256 = validSHA[:10] }, want: "sha256"},
		{name: "non hex sha", mutate: func(m *domain.Manifest) { m.SHA256 = "g" + validSHA[1:] }, want: "sha256"},
		{name: "negative timeout", mutate: func(m *domain.Manifest) { m.TimeoutMS = -1 }, want: "timeout_ms"},
		{name: "no events", mutate: func(m *domain.Manifest) { m.Events = nil }, want: "at least one event"},
		{name: "duplicate event", mutate: func(m *domain.Manifest) {
			m.Events = []domain.Kind{domain.KindRotation, domain.KindRotation}
		}, want: "duplicate event"},
		{name: "unknown event", mutate: func(m *domain.Manifest) { m.Events = []domain.Kind{"command"} }, want: "unknown event kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := validManifest()
			tc.mutate(&m)
			err := m.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrInvalidManifest) || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in invalid manifest error, got %v", tc.want, err)
			}
		})
	}
}

func TestManifestValidateReportsEveryProblem(t *testing.T) {
	t.Parallel()
	err := domain.Manifest{}.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"<unnamed>", "name is required", "binary is required", "at least one event"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestManifestSubscriptionAndTimeout(t *testing.T) {
	t.Parallel()
	m := domain.Manifest{Events: []domain.Kind{domain.KindNotification}}
	if !m.Subscribed(domain.KindNotification) || m.Subscribed(domain.KindRotation) {
		t.Fatalf("unexpected subscriptions for %v", m.Events)
	}
	if m.CallTimeout() != domain.DefaultCallTimeout {
		t.Fatalf("expected default timeout, got %v", m.CallTimeout())
	}
	m.TimeoutMS = 250
	if m.CallTimeout() != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", m.CallTimeout())
	}
}

func TestDescriptorCheck(t *testing.T) {
	t.Parallel()
	m := validManifest()
	ok := domain.Descriptor{Name: "p", Version: "1", Events: []domain.Kind{domain.KindRotation, domain.KindNotification}}
	if err := ok.Check(m); err != nil {
		t.Fatalf("expected superset of events to pass: %v", err)
	}
	for _, d := range []domain.Descriptor{
		{Name: "q", Version: "1", Events: ok.Events},
		{Name: "p", Version: "2", Events: ok.Events},
		{Name: "p", Version: "1", Events: []domain.Kind{domain.KindNotification}},
	} {
		if err := d.Check(m); err == nil {
			t.Fatalf("expected mismatch for %+v", d)
		}
	}
}

func TestEventValidate(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	valid := []domain.Event{
		{Kind: domain.KindRotation, OccurredAt: now, Previous: "a", Next: "b", ElapsedSeconds: 60},
		{Kind: domain.KindRotation, OccurredAt: now},
		{Kind: domain.KindNotification, OccurredAt: now, Message: "Time to rotate!"},
	}
	for _, ev := range valid {
		if err := ev.Validate(); err != nil {
			t.Fatalf("expected %+v to be valid: %v", ev, err)
		}
	}
	invalid := []domain.Event{
		{Kind: "command", OccurredAt: now},
		{Kind: domain.KindRotation},
		{Kind: domain.KindRotation, OccurredAt: now, ElapsedSeconds: -1},
		{Kind: domain.KindNotification, OccurredAt: now, Message: "  "},
	}
	for _, ev := range invalid {
		if err := ev.Validate(); err == nil {
			t.Fatalf("expected %+v to be invalid", ev)
		}
	}
}
