package in

import (
	"context"
	"time"

	"mobtime/internal/modules/session/dto"
)

type Usecase interface {
	Status(ctx context.Context) (dto.StatusOutput, error)
	Start(ctx context.Context) (dto.StatusOutput, error)
	Stop(ctx context.Context) (dto.StatusOutput, error)
	Toggle(ctx context.Context) (dto.StatusOutput, error)
	Reset(ctx context.Context) (dto.StatusOutput, error)
	Tick(ctx context.Context) (dto.StatusOutput, error)
	Shuffle(ctx context.Context) (dto.StatusOutput, error)
	AddParticipant(ctx context.Context, input dto.AddParticipantInput) (dto.StatusOutput, error)
	RemoveParticipant(ctx context.Context, username string) (dto.StatusOutput, error)
	SetInterval(ctx context.Context, input dto.IntervalInput) (dto.StatusOutput, error)
	SetIntervalField(ctx context.Context, input dto.IntervalFieldInput) (dto.StatusOutput, error)
	SetSound(ctx context.Context, enabled bool) (dto.StatusOutput, error)
	SetNotification(ctx context.Context, enabled bool) (dto.StatusOutput, error)
	MarkAvatarFailed(ctx context.Context, username string) (dto.StatusOutput, error)
	ProbeAvatars(ctx context.Context) (dto.ProbeOutput, error)
	History(ctx context.Context, limit int) ([]dto.RotationOutput, error)
	ExportHistory(ctx context.Context, dir string, limit int) (dto.ExportOutput, error)
	Run(ctx context.Context, tickEvery time.Duration) error
}
