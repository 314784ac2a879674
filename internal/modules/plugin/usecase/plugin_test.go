package usecase_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mobtime/internal/modules/plugin/domain"
	"mobtime/internal/modules/plugin/dto"
	"mobtime/internal/modules/plugin/service"
	"mobtime/internal/modules/plugin/usecase"
	apperrors "mobtime/internal/platform/errors"
)

type fakeManifestStore struct {
	manifests []domain.Manifest
}

func (s fakeManifestStore) Load(context.Context) ([]domain.Manifest, error) {
	return s.manifests, nil
}

type fakeHost struct {
	events chan domain.Event
}

func (fakeHost) Describe(_ context.Context, m domain.Manifest) (domain.Descriptor, error) {
	return domain.Descriptor{Name: m.Name, Version: m.Version, Events: m.Events}, nil
}

func (h fakeHost) Deliver(_ context.Context, _ domain.Manifest, ev domain.Event) (domain.Receipt, error) {
	if h.events != nil {
		h.events <- ev
	}
	return domain.Receipt{Accepted: true, Detail: "ok"}, nil
}

func TestUsecaseListDoctorAndPublish(t *testing.T) {
	t.Parallel()
	manifest := manifestWithBinary(t)
	uc := usecase.NewInteractor(service.NewPluginService(fakeManifestStore{manifests: []domain.Manifest{manifest}}, fakeHost{}, nil))

	list, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "p1" || len(list[0].Events) != 2 || list[0].TimeoutMS != 5000 {
		t.Fatalf("unexpected list: %+v", list)
	}

	docs, err := uc.Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(docs) != 1 || !docs[0].Healthy() || docs[0].Reported != "p1 1" {
		t.Fatalf("unexpected doctor result: %+v", docs)
	}

	results, err := uc.Publish(context.Background(), dto.PublishInput{Kind: "rotation", OccurredAt: time.Now(), Previous: "a", Next: "b"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(results) != 1 || !results[0].Accepted {
		t.Fatalf("unexpected publish results: %+v", results)
	}
}

func TestUsecasePublishNormalisesInput(t *testing.T) {
	t.Parallel()
	events := make(chan domain.Event, 1)
	uc := usecase.NewInteractor(service.NewPluginService(
		fakeManifestStore{manifests: []domain.Manifest{manifestWithBinary(t)}}, fakeHost{events: events}, nil))

	if _, err := uc.Publish(context.Background(), dto.PublishInput{Kind: " Notification ", Message: "  hello  "}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	ev := <-events
	if ev.Kind != domain.KindNotification || ev.Message != "hello" || ev.OccurredAt.IsZero() {
		t.Fatalf("unexpected delivered event %+v", ev)
	}

	_, err := uc.Publish(context.Background(), dto.PublishInput{Kind: "command"})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUsecaseListRejectsDuplicateNames(t *testing.T) {
	t.Parallel()
	manifest := manifestWithBinary(t)
	uc := usecase.NewInteractor(service.NewPluginService(fakeManifestStore{manifests: []domain.Manifest{manifest, manifest}}, fakeHost{}, nil))
	if _, err := uc.List(context.Background()); !errors.Is(err, domain.ErrInvalidManifest) {
		t.Fatalf("expected duplicate plugin name error, got %v", err)
	}
}

func manifestWithBinary(t *testing.T) domain.Manifest {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "plugin-bin")
	if err := os.WriteFile(binPath, []byte("binary"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	hash := sha256.Sum256([]byte("binary"))
	return domain.Manifest{
		Name:    "p1",
		Version: "1",
		Binary:  binPath,
		SHA256:  hex.EncodeToString(hash[:]),
		Enabled: true,
		Events:  []domain.Kind{domain.KindRotation, domain.KindNotification},
	}
}
