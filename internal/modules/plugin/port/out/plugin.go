package out

import (
	"context"

	"mobtime/internal/modules/plugin/domain"
)

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}

// Host launches a plugin for the duration of one call.
type Host interface {
	Describe(ctx context.Context, manifest domain.Manifest) (domain.Descriptor, error)
	Deliver(ctx context.Context, manifest domain.Manifest, event domain.Event) (domain.Receipt, error)
}
