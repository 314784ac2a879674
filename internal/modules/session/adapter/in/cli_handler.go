package in

import (
	"context"
	"time"

	sessiondto "mobtime/internal/modules/session/dto"
	sessionin "mobtime/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Status(ctx context.Context) (sessiondto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Start(ctx context.Context) (sessiondto.StatusOutput, error) {
	return h.usecase.Start(ctx)
}

func (h CLIHandler) AddMember(ctx context.Context, username string) (sessiondto.StatusOutput, error) {
	return h.usecase.AddParticipant(ctx, sessiondto.AddParticipantInput{Username: username})
}

func (h CLIHandler) RemoveMember(ctx context.Context, username string) (sessiondto.StatusOutput, error) {
	return h.usecase.RemoveParticipant(ctx, username)
}

func (h CLIHandler) Shuffle(ctx context.Context) (sessiondto.StatusOutput, error) {
	return h.usecase.Shuffle(ctx)
}

func (h CLIHandler) SetInterval(ctx context.Context, hours, minutes, seconds string) (sessiondto.StatusOutput, error) {
	return h.usecase.SetInterval(ctx, sessiondto.IntervalInput{Hours: hours, Minutes: minutes, Seconds: seconds})
}

func (h CLIHandler) SetSound(ctx context.Context, enabled bool) (sessiondto.StatusOutput, error) {
	return h.usecase.SetSound(ctx, enabled)
}

func (h CLIHandler) SetNotification(ctx context.Context, enabled bool) (sessiondto.StatusOutput, error) {
	return h.usecase.SetNotification(ctx, enabled)
}

func (h CLIHandler) ProbeAvatars(ctx context.Context) (sessiondto.ProbeOutput, error) {
	return h.usecase.ProbeAvatars(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]sessiondto.RotationOutput, error) {
	return h.usecase.History(ctx, limit)
}

func (h CLIHandler) ExportHistory(ctx context.Context, dir string, limit int) (sessiondto.ExportOutput, error) {
	return h.usecase.ExportHistory(ctx, dir, limit)
}

func (h CLIHandler) Stop(ctx context.Context) (sessiondto.StatusOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Reset(ctx context.Context) (sessiondto.StatusOutput, error) {
	return h.usecase.Reset(ctx)
}

// Run keeps the countdown going until ctx is cancelled.
func (h CLIHandler) Run(ctx context.Context, tickEvery time.Duration) error {
	return h.usecase.Run(ctx, tickEvery)
}
