package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mobtime/internal/modules/plugin/domain"
	"mobtime/internal/modules/plugin/dto"
	pluginout "mobtime/internal/modules/plugin/port/out"
)

type PluginService struct {
	store  pluginout.ManifestStore
	host   pluginout.Host
	logger *slog.Logger
}

func NewPluginService(store pluginout.ManifestStore, host pluginout.Host, logger *slog.Logger) *PluginService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PluginService{store: store, host: host, logger: logger}
}

func (s *PluginService) List(ctx context.Context) ([]dto.PluginInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PluginInfo, 0, len(manifests))
	for _, m := range manifests {
		events := make([]string, 0, len(m.Events))
		for _, kind := range m.Events {
			events = append(events, string(kind))
		}
		out = append(out, dto.PluginInfo{
			Name:      m.Name,
			Version:   m.Version,
			Enabled:   m.Enabled,
			Binary:    m.Binary,
			Events:    events,
			TimeoutMS: int(m.CallTimeout() / time.Millisecond),
		})
	}
	return out, nil
}

// Doctor checks every manifest entry, including invalid ones, without
// failing the whole report.
func (s *PluginService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		if seen[m.Name] {
			results = append(results, dto.DoctorResult{Name: m.Name, Enabled: m.Enabled, Error: "duplicate plugin name"})
			continue
		}
		seen[m.Name] = true
		results = append(results, s.diagnose(ctx, m))
	}
	return results, nil
}

func (s *PluginService) diagnose(ctx context.Context, m domain.Manifest) dto.DoctorResult {
	r := dto.DoctorResult{Name: m.Name, Enabled: m.Enabled}
	if err := m.Validate(); err != nil {
		r.Error = err.Error()
		return r
	}
	r.ManifestValid = true

	if _, err := os.Stat(m.Binary); err != nil {
		r.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		return r
	}
	r.BinaryReachable = true

	if err := verifyChecksum(m); err != nil {
		r.Error = err.Error()
		if errors.Is(err, domain.ErrChecksumMismatch) {
			r.Error = "checksum mismatch"
		}
		return r
	}
	r.ChecksumValid = true

	if !m.Enabled || s.host == nil {
		return r
	}
	d, err := s.host.Describe(ctx, m)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Reported = d.Name + " " + d.Version
	if err := d.Check(m); err != nil {
		r.Error = err.Error()
		return r
	}
	r.HandshakeOK = true
	return r
}

// Publish delivers the event to every enabled subscriber concurrently. A
// failing plugin is reported in its own result and never affects the rest.
func (s *PluginService) Publish(ctx context.Context, input dto.PublishInput) ([]dto.DeliveryResult, error) {
	event := domain.Event{
		Kind:           domain.Kind(input.Kind),
		OccurredAt:     input.OccurredAt,
		Previous:       input.Previous,
		Next:           input.Next,
		ElapsedSeconds: input.ElapsedSeconds,
		Message:        input.Message,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}

	var targets []domain.Manifest
	for _, m := range manifests {
		if m.Enabled && m.Subscribed(event.Kind) {
			targets = append(targets, m)
		}
	}
	results := make([]dto.DeliveryResult, len(targets))
	var wg sync.WaitGroup
	for i, m := range targets {
		wg.Go(func() { results[i] = s.deliver(ctx, m, event) })
	}
	wg.Wait()
	return results, nil
}

func (s *PluginService) deliver(ctx context.Context, m domain.Manifest, event domain.Event) dto.DeliveryResult {
	started := time.Now()
	result := dto.DeliveryResult{Plugin: m.Name}
	receipt, err := s.send(ctx, m, event)
	result.Duration = time.Since(started)
	if err != nil {
		result.Error = err.Error()
		s.logger.Warn("plugin delivery failed", "plugin", m.Name, "kind", event.Kind, "error", err)
		return result
	}
	result.Accepted = receipt.Accepted
	result.Detail = receipt.Detail
	s.logger.Debug("plugin delivery", "plugin", m.Name, "kind", event.Kind, "duration", result.Duration)
	return result
}

func (s *PluginService) send(ctx context.Context, m domain.Manifest, event domain.Event) (domain.Receipt, error) {
	if s.host == nil {
		return domain.Receipt{}, errors.New("plugin host is not configured")
	}
	if err := verifyChecksum(m); err != nil {
		return domain.Receipt{}, err
	}
	receipt, err := s.host.Deliver(ctx, m, event)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Receipt{}, fmt.Errorf("%w: %s", domain.ErrPluginTimeout, m.Name)
		}
		return domain.Receipt{}, err
	}
	if !receipt.Accepted {
		return receipt, fmt.Errorf("%w: %s", domain.ErrEventRejected, receipt.Detail)
	}
	return receipt, nil
}

// loadValidated fails on the first invalid manifest or duplicate name;
// Doctor is the tool for seeing all of them.
func (s *PluginService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, m := range manifests {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("%w: duplicate plugin name %s", domain.ErrInvalidManifest, m.Name)
		}
		seen[m.Name] = true
	}
	return manifests, nil
}

func verifyChecksum(m domain.Manifest) error {
	f, err := os.Open(m.Binary)
	if err != nil {
		return fmt.Errorf("open plugin binary: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash plugin binary: %w", err)
	}
	if hex.EncodeToString(h.Sum(nil)) != m.SHA256 {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(m.Binary))
	}
	return nil
}
