package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mobtime/internal/modules/session/domain"
	sessiondto "mobtime/internal/modules/session/dto"
	sessionin "mobtime/internal/modules/session/port/in"
	sessionout "mobtime/internal/modules/session/port/out"
	"mobtime/internal/modules/session/service"
	apperrors "mobtime/internal/platform/errors"
)

const (
	RoleDriver    = "driver"
	RoleNavigator = "navigator"
)

type Interactor struct {
	svc      *service.SessionService
	history  sessionout.HistoryStore
	exporter sessionout.HistoryExporter
	prober   sessionout.AvatarProber
}

func NewInteractor(svc *service.SessionService, history sessionout.HistoryStore, exporter sessionout.HistoryExporter, prober sessionout.AvatarProber) sessionin.Usecase {
	return &Interactor{svc: svc, history: history, exporter: exporter, prober: prober}
}

func (i *Interactor) Status(_ context.Context) (sessiondto.StatusOutput, error) {
	return toStatus(i.svc.State()), nil
}

func (i *Interactor) Start(ctx context.Context) (sessiondto.StatusOutput, error) {
	return i.dispatch(ctx, domain.StartRequested{})
}

func (i *Interactor) Stop(ctx context.Context) (sessiondto.StatusOutput, error) {
	return i.dispatch(ctx, domain.StopRequested{})
}

func (i *Interactor) Toggle(ctx context.Context) (sessiondto.StatusOutput, error) {
	if i.svc.Active() {
		return i.Stop(ctx)
	}
	return i.Start(ctx)
}

func (i *Interactor) Reset(ctx context.Context) (sessiondto.StatusOutput, error) {
	return i.dispatch(ctx, domain.Reset{})
}

func (i *Interactor) Tick(ctx context.Context) (sessiondto.StatusOutput, error) {
	return i.dispatch(ctx, domain.Tick{At: i.svc.Now()})
}

func (i *Interactor) Shuffle(ctx context.Context) (sessiondto.StatusOutput, error) {
	if i.svc.Active() {
		return sessiondto.StatusOutput{}, fmt.Errorf("shuffle: %w", apperrors.ErrSessionActive)
	}
	return i.dispatch(ctx, domain.ShuffleRequested{})
}

func (i *Interactor) AddParticipant(ctx context.Context, input sessiondto.AddParticipantInput) (sessiondto.StatusOutput, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return sessiondto.StatusOutput{}, fmt.Errorf("%w: username is required", apperrors.ErrInvalidInput)
	}
	i.svc.Dispatch(ctx, domain.EditDraft{Text: username})
	state := i.svc.Dispatch(ctx, domain.AddParticipant{})
	if state.Draft != "" {
		state = i.svc.Dispatch(ctx, domain.EditDraft{Text: ""})
		return toStatus(state), fmt.Errorf("%w: %s", apperrors.ErrDuplicateParticipant, username)
	}
	return toStatus(state), nil
}

func (i *Interactor) RemoveParticipant(ctx context.Context, username string) (sessiondto.StatusOutput, error) {
	username = strings.TrimSpace(username)
	if !domain.HasUser(i.svc.State().Users, username) {
		return sessiondto.StatusOutput{}, fmt.Errorf("%w: participant %q", apperrors.ErrNotFound, username)
	}
	return i.dispatch(ctx, domain.RemoveParticipant{Username: username})
}

// SetInterval edits each non-empty component in turn. Components left empty
// keep their current value.
func (i *Interactor) SetInterval(ctx context.Context, input sessiondto.IntervalInput) (sessiondto.StatusOutput, error) {
	edits := []sessiondto.IntervalFieldInput{
		{Field: string(domain.FieldHours), Value: input.Hours},
		{Field: string(domain.FieldMinutes), Value: input.Minutes},
		{Field: string(domain.FieldSeconds), Value: input.Seconds},
	}
	state := i.svc.State()
	total := state.IntervalSeconds
	for _, edit := range edits {
		if strings.TrimSpace(edit.Value) == "" {
			continue
		}
		next, err := validateField(total, edit)
		if err != nil {
			return sessiondto.StatusOutput{}, err
		}
		total = next
	}
	for _, edit := range edits {
		if strings.TrimSpace(edit.Value) == "" {
			continue
		}
		state = i.svc.Dispatch(ctx, domain.EditInterval{Field: domain.Field(edit.Field), Raw: edit.Value})
	}
	return toStatus(state), nil
}

func (i *Interactor) SetIntervalField(ctx context.Context, input sessiondto.IntervalFieldInput) (sessiondto.StatusOutput, error) {
	if _, err := validateField(i.svc.State().IntervalSeconds, input); err != nil {
		return sessiondto.StatusOutput{}, err
	}
	return i.dispatch(ctx, domain.EditInterval{Field: domain.Field(input.Field), Raw: input.Value})
}

func (i *Interactor) SetSound(ctx context.Context, enabled bool) (sessiondto.StatusOutput, error) {
	return i.dispatch(ctx, domain.SetSound{Enabled: enabled})
}

func (i *Interactor) SetNotification(ctx context.Context, enabled bool) (sessiondto.StatusOutput, error) {
	return i.dispatch(ctx, domain.SetNotification{Enabled: enabled})
}

// MarkAvatarFailed switches a participant's avatar to the fallback image for
// the rest of the process.
func (i *Interactor) MarkAvatarFailed(ctx context.Context, username string) (sessiondto.StatusOutput, error) {
	return i.dispatch(ctx, domain.AvatarLoadFailed{Username: username})
}

// ProbeAvatars checks every participant's avatar and switches unreachable
// ones to the fallback image.
func (i *Interactor) ProbeAvatars(ctx context.Context) (sessiondto.ProbeOutput, error) {
	out := sessiondto.ProbeOutput{Failed: []string{}}
	if i.prober == nil {
		return out, nil
	}
	for _, user := range i.svc.State().Users {
		if user.AvatarFailed {
			continue
		}
		out.Checked++
		if i.prober.Reachable(ctx, domain.AvatarURL(user.Username)) {
			continue
		}
		out.Failed = append(out.Failed, user.Username)
		i.svc.Dispatch(ctx, domain.AvatarLoadFailed{Username: user.Username})
	}
	return out, nil
}

func (i *Interactor) History(ctx context.Context, limit int) ([]sessiondto.RotationOutput, error) {
	records, err := i.records(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.RotationOutput, 0, len(records))
	for _, r := range records {
		out = append(out, sessiondto.RotationOutput{
			ID:             r.ID,
			RotatedAt:      r.RotatedAt,
			Previous:       r.Previous,
			Next:           r.Next,
			ElapsedSeconds: r.ElapsedSeconds,
			Elapsed:        domain.FormatSeconds(r.ElapsedSeconds, domain.LayoutHMS),
		})
	}
	return out, nil
}

func (i *Interactor) ExportHistory(ctx context.Context, dir string, limit int) (sessiondto.ExportOutput, error) {
	if strings.TrimSpace(dir) == "" {
		return sessiondto.ExportOutput{}, fmt.Errorf("%w: export directory is required", apperrors.ErrInvalidInput)
	}
	if i.exporter == nil {
		return sessiondto.ExportOutput{}, fmt.Errorf("history exporter is not configured")
	}
	records, err := i.records(ctx, limit)
	if err != nil {
		return sessiondto.ExportOutput{}, err
	}
	path, err := i.exporter.Export(ctx, dir, records)
	if err != nil {
		return sessiondto.ExportOutput{}, err
	}
	return sessiondto.ExportOutput{Path: path, Rotations: len(records)}, nil
}

func (i *Interactor) Run(ctx context.Context, tickEvery time.Duration) error {
	return i.svc.Run(ctx, tickEvery)
}

func (i *Interactor) records(ctx context.Context, limit int) ([]domain.RotationRecord, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be non-negative", apperrors.ErrInvalidInput)
	}
	if i.history == nil {
		return []domain.RotationRecord{}, nil
	}
	return i.history.List(ctx, limit)
}

func (i *Interactor) dispatch(ctx context.Context, ev domain.Event) (sessiondto.StatusOutput, error) {
	return toStatus(i.svc.Dispatch(ctx, ev)), nil
}

// validateField returns the total the edit would produce from total.
func validateField(total int, input sessiondto.IntervalFieldInput) (int, error) {
	next, err := domain.ApplyIntervalField(total, domain.Field(input.Field), input.Value)
	if err != nil {
		return total, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	return next, nil
}

func toStatus(state domain.State) sessiondto.StatusOutput {
	participants := make([]sessiondto.ParticipantOutput, 0, len(state.Users))
	for idx, user := range state.Users {
		role := ""
		switch idx {
		case 0:
			role = RoleDriver
		case 1:
			role = RoleNavigator
		}
		participants = append(participants, sessiondto.ParticipantOutput{
			Username:  user.Username,
			AvatarURL: user.Avatar(),
			Role:      role,
		})
	}
	elapsed := state.ElapsedSeconds()
	remaining := state.RemainingSeconds()
	return sessiondto.StatusOutput{
		Active:              state.Active,
		ElapsedSeconds:      elapsed,
		Elapsed:             domain.FormatSeconds(elapsed, domain.LayoutHMS),
		RemainingSeconds:    remaining,
		Remaining:           domain.FormatSeconds(remaining, domain.LayoutHMS),
		IntervalSeconds:     state.IntervalSeconds,
		Interval:            domain.FormatSeconds(state.IntervalSeconds, domain.LayoutHMS),
		Intervals:           len(state.Durations),
		Participants:        participants,
		SoundEnabled:        state.SoundEnabled,
		NotificationEnabled: state.NotificationEnabled,
	}
}
