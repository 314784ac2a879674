package out

import (
	"context"

	"mobtime/internal/modules/session/domain"
)

// SnapshotStore persists the snapshot subset of the session state.
type SnapshotStore interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snapshot domain.Snapshot) error
}

type SoundPlayer interface {
	Play(ctx context.Context, asset string) error
}

type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type HistoryStore interface {
	Record(ctx context.Context, record domain.RotationRecord) error
	List(ctx context.Context, limit int) ([]domain.RotationRecord, error)
}

// HistoryExporter renders rotation records into a note under dir and returns
// its path.
type HistoryExporter interface {
	Export(ctx context.Context, dir string, records []domain.RotationRecord) (string, error)
}

// HookPublisher forwards rotation events to external hook plugins.
type HookPublisher interface {
	PublishRotation(ctx context.Context, rotated domain.Rotated) error
	PublishNotification(ctx context.Context, notification domain.PostNotification) error
}

// AvatarProber reports whether a participant's avatar can be loaded.
type AvatarProber interface {
	Reachable(ctx context.Context, url string) bool
}

// Shuffler returns a uniformly random permutation of [0, n).
type Shuffler interface {
	Perm(n int) []int
}
