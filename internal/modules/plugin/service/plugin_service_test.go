package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	pluginout "mobtime/internal/modules/plugin/adapter/out"
	"mobtime/internal/modules/plugin/domain"
	"mobtime/internal/modules/plugin/dto"
	"mobtime/internal/modules/plugin/service"
)

type staticStore struct {
	manifests []domain.Manifest
}

func (s staticStore) Load(context.Context) ([]domain.Manifest, error) {
	return s.manifests, nil
}

type recordingHost struct {
	mu        sync.Mutex
	delivered []string
	described []string
	fail      map[string]error
	reject    map[string]bool
	version   map[string]string
}

func (h *recordingHost) Describe(_ context.Context, m domain.Manifest) (domain.Descriptor, error) {
	h.mu.Lock()
	h.described = append(h.described, m.Name)
	h.mu.Unlock()
	version := m.Version
	if v, ok := h.version[m.Name]; ok {
		version = v
	}
	return domain.Descriptor{Name: m.Name, Version: version, Events: m.Events}, nil
}

func (h *recordingHost) Deliver(_ context.Context, m domain.Manifest, ev domain.Event) (domain.Receipt, error) {
	h.mu.Lock()
	h.delivered = append(h.delivered, m.Name+":"+string(ev.Kind))
	h.mu.Unlock()
	if err := h.fail[m.Name]; err != nil {
		return domain.Receipt{}, err
	}
	if h.reject[m.Name] {
		return domain.Receipt{Accepted: false, Detail: "not today"}, nil
	}
	return domain.Receipt{Accepted: true, Detail: "logged"}, nil
}

func (h *recordingHost) deliveries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := slices.Clone(h.delivered)
	slices.Sort(out)
	return out
}

func pluginBinary(t *testing.T, name string) (string, string) {
	t.Helper()
	payload := []byte("binary-" + name)
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, payload, 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	hash := sha256.Sum256(payload)
	return path, hex.EncodeToString(hash[:])
}

func manifest(t *testing.T, name string, enabled bool, kinds ...domain.Kind) domain.Manifest {
	t.Helper()
	bin, sum := pluginBinary(t, name)
	return domain.Manifest{Name: name, Version: "1.0.0", Binary: bin, SHA256: sum, Enabled: enabled, Events: kinds}
}

func TestDoctorDetectsChecksumMismatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	binPath := filepath.Join(dir, "dummy-plugin")
	if err := os.WriteFile(binPath, []byte("not-a-real-plugin"), 0o755); err != nil {
		t.Fatalf("write plugin binary: %v", err)
	}
	raw := `- name: demo
  version: 1.0.0
  binary: dummy-plugin
  sha256: ` + strings.Repeat("0", 64) + `
  enabled: true
  events: [rotation]
`
	if err := os.WriteFile(filepath.Join(dir, "plugins.yaml"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write plugins.yaml: %v", err)
	}

	svc := service.NewPluginService(pluginout.NewFileManifestStore(dir), nil, nil)
	results, err := svc.Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	r := results[0]
	if !r.ManifestValid || !r.BinaryReachable || r.ChecksumValid || r.Error != "checksum mismatch" {
		t.Fatalf("expected checksum mismatch, got %+v", r)
	}
}

func TestDoctorStagesAndHandshake(t *testing.T) {
	t.Parallel()
	missing := manifest(t, "missing", true, domain.KindRotation)
	missing.Binary = filepath.Join(t.TempDir(), "nope")
	host := &recordingHost{version: map[string]string{"stale": "0.9.0"}}
	store := staticStore{manifests: []domain.Manifest{
		manifest(t, "good", true, domain.KindRotation),
		manifest(t, "stale", true, domain.KindRotation),
		manifest(t, "idle", false, domain.KindRotation),
		{Name: "broken"},
		missing,
		manifest(t, "good", true, domain.KindRotation),
	}}
	results, err := service.NewPluginService(store, host, nil).Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("expected a result per entry, got %+v", results)
	}
	if !results[0].Healthy() || results[0].Reported != "good 1.0.0" {
		t.Fatalf("expected good plugin healthy, got %+v", results[0])
	}
	if results[1].HandshakeOK || !strings.Contains(results[1].Error, "0.9.0") {
		t.Fatalf("expected version mismatch, got %+v", results[1])
	}
	if !results[2].Healthy() || results[2].HandshakeOK {
		t.Fatalf("disabled plugin must pass without launching, got %+v", results[2])
	}
	if results[3].ManifestValid || results[3].Error == "" {
		t.Fatalf("expected invalid manifest, got %+v", results[3])
	}
	if results[4].BinaryReachable || !strings.Contains(results[4].Error, "does not exist") {
		t.Fatalf("expected missing binary, got %+v", results[4])
	}
	if results[5].Error != "duplicate plugin name" {
		t.Fatalf("expected duplicate name, got %+v", results[5])
	}
	if slices.Contains(host.described, "idle") {
		t.Fatalf("disabled plugin must not be launched")
	}
}

func TestPublishRoutesBySubscription(t *testing.T) {
	t.Parallel()
	host := &recordingHost{}
	store := staticStore{manifests: []domain.Manifest{
		manifest(t, "slack", true, domain.KindRotation, domain.KindNotification),
		manifest(t, "audit", true, domain.KindRotation),
		manifest(t, "beeper", true, domain.KindNotification),
		manifest(t, "off", false, domain.KindRotation),
	}}
	svc := service.NewPluginService(store, host, nil)

	results, err := svc.Publish(context.Background(), dto.PublishInput{
		Kind:           dto.KindRotation,
		OccurredAt:     time.Now(),
		Previous:       "alice",
		Next:           "bob",
		ElapsedSeconds: 900,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(results) != 2 || results[0].Plugin != "slack" || results[1].Plugin != "audit" {
		t.Fatalf("results must follow manifest order, got %+v", results)
	}
	if got := strings.Join(host.deliveries(), ","); got != "audit:rotation,slack:rotation" {
		t.Fatalf("unexpected deliveries %s", got)
	}
}

func TestPublishContinuesPastFailingPlugin(t *testing.T) {
	t.Parallel()
	host := &recordingHost{
		fail:   map[string]error{"broken": errors.New("connection refused")},
		reject: map[string]bool{"picky": true},
	}
	store := staticStore{manifests: []domain.Manifest{
		manifest(t, "broken", true, domain.KindNotification),
		manifest(t, "picky", true, domain.KindNotification),
		manifest(t, "fine", true, domain.KindNotification),
	}}
	svc := service.NewPluginService(store, host, nil)

	results, err := svc.Publish(context.Background(), dto.PublishInput{
		Kind:       dto.KindNotification,
		OccurredAt: time.Now(),
		Message:    "bob, you're up! Time to rotate.",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected three results, got %+v", results)
	}
	if results[0].Error == "" || results[1].Error == "" || results[1].Accepted {
		t.Fatalf("expected failures for broken and picky, got %+v", results[:2])
	}
	if !strings.Contains(results[1].Error, "not today") {
		t.Fatalf("rejection detail must be reported, got %q", results[1].Error)
	}
	if !results[2].Accepted || results[2].Detail != "logged" {
		t.Fatalf("expected fine plugin to accept, got %+v", results[2])
	}
}

func TestPublishMapsDeadlineToTimeout(t *testing.T) {
	t.Parallel()
	host := &recordingHost{fail: map[string]error{"slow": context.DeadlineExceeded}}
	svc := service.NewPluginService(staticStore{manifests: []domain.Manifest{
		manifest(t, "slow", true, domain.KindRotation),
	}}, host, nil)
	results, err := svc.Publish(context.Background(), dto.PublishInput{Kind: dto.KindRotation, OccurredAt: time.Now()})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Error, domain.ErrPluginTimeout.Error()) {
		t.Fatalf("expected timeout result, got %+v", results)
	}
}

func TestPublishRejectsInvalidEventAndBadChecksum(t *testing.T) {
	t.Parallel()
	tampered := manifest(t, "tampered", true, domain.KindRotation)
	tampered.SHA256 = strings.Repeat("b", 64)
	host := &recordingHost{}
	svc := service.NewPluginService(staticStore{manifests: []domain.Manifest{tampered}}, host, nil)

	if _, err := svc.Publish(context.Background(), dto.PublishInput{Kind: "command", OccurredAt: time.Now()}); err == nil {
		t.Fatalf("expected invalid event error")
	}
	results, err := svc.Publish(context.Background(), dto.PublishInput{Kind: dto.KindRotation, OccurredAt: time.Now()})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Error, "checksum") {
		t.Fatalf("expected checksum failure, got %+v", results)
	}
	if len(host.deliveries()) != 0 {
		t.Fatalf("tampered plugin must not be started")
	}
}
