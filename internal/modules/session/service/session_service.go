package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"mobtime/internal/modules/session/domain"
	sessionout "mobtime/internal/modules/session/port/out"
	"mobtime/internal/platform/clock"
	"mobtime/internal/platform/id"
)

// Ports groups the outbound collaborators. Nil ports are skipped.
type Ports struct {
	Snapshots sessionout.SnapshotStore
	Sound     sessionout.SoundPlayer
	Notifier  sessionout.Notifier
	History   sessionout.HistoryStore
	Hooks     sessionout.HookPublisher
	Shuffler  sessionout.Shuffler
}

// SessionService owns the authoritative session state. Events are processed
// one at a time to completion; effect requests are resolved inline and
// outbound signals are fire-and-forget.
type SessionService struct {
	mu     sync.Mutex
	clock  clock.Clock
	idGen  id.Generator
	ports  Ports
	logger *slog.Logger
	state  domain.State
	wake   chan struct{}
}

func NewSessionService(clk clock.Clock, idGen id.Generator, ports Ports, logger *slog.Logger, soundAsset string) *SessionService {
	if ports.Shuffler == nil {
		ports.Shuffler = randomShuffler{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SessionService{
		clock:  clk,
		idGen:  idGen,
		ports:  ports,
		logger: logger,
		state:  domain.NewState(domain.DefaultSnapshot(), soundAsset),
		wake:   make(chan struct{}, 1),
	}
}

// Load replaces the state with one built from the persisted snapshot. A
// missing or malformed snapshot falls back to the defaults.
func (s *SessionService) Load(ctx context.Context) domain.State {
	snapshot := domain.DefaultSnapshot()
	if s.ports.Snapshots != nil {
		loaded, err := s.ports.Snapshots.Load(ctx)
		if err != nil {
			s.logger.Warn("snapshot unavailable, using defaults", "error", err)
		} else {
			snapshot = loaded
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.NewState(snapshot, s.state.SoundAsset)
	s.logger.Info("session loaded",
		"participants", len(snapshot.Users),
		"interval_seconds", snapshot.IntervalSeconds)
	return s.state
}

func (s *SessionService) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SessionService) Active() bool {
	return s.State().Active
}

// Now reads the session clock.
func (s *SessionService) Now() time.Time {
	return s.clock.Now()
}

// Dispatch processes ev and every follow-up event it requests, then returns
// the resulting state.
func (s *SessionService) Dispatch(ctx context.Context, ev domain.Event) domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := s.state.Active
	queue := []domain.Event{ev}
	for len(queue) > 0 {
		var signals []domain.Signal
		s.state, signals = domain.Reduce(s.state, queue[0])
		queue = queue[1:]
		for _, sig := range signals {
			switch v := sig.(type) {
			case domain.RequestNow:
				queue = append(queue, domain.ClockRead{Transition: v.Transition, At: s.clock.Now()})
			case domain.RequestShuffle:
				queue = append(queue, domain.Shuffled{Order: s.ports.Shuffler.Perm(v.Count)})
			default:
				s.perform(ctx, sig)
			}
		}
	}
	if s.state.Active != wasActive {
		s.logger.Debug("session state changed", "active", s.state.Active)
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	return s.state
}

func (s *SessionService) perform(ctx context.Context, sig domain.Signal) {
	switch v := sig.(type) {
	case domain.PersistSnapshot:
		if s.ports.Snapshots == nil {
			return
		}
		if err := s.ports.Snapshots.Save(ctx, v.Snapshot); err != nil {
			s.logger.Warn("persist snapshot", "error", err)
		}

	case domain.PlaySound:
		if s.ports.Sound == nil {
			return
		}
		if err := s.ports.Sound.Play(ctx, v.Asset); err != nil {
			s.logger.Warn("play sound", "asset", v.Asset, "error", err)
		}

	case domain.PostNotification:
		if s.ports.Notifier != nil {
			if err := s.ports.Notifier.Notify(ctx, v.Message); err != nil {
				s.logger.Warn("post notification", "error", err)
			}
		}
		if s.ports.Hooks != nil {
			if err := s.ports.Hooks.PublishNotification(ctx, v); err != nil {
				s.logger.Warn("publish notification hook", "error", err)
			}
		}

	case domain.Rotated:
		s.logger.Info("rotated",
			"previous", v.Previous,
			"next", v.Next,
			"elapsed_seconds", v.ElapsedSeconds)
		if s.ports.History != nil {
			record := domain.RotationRecord{
				ID:             s.idGen.New(),
				RotatedAt:      v.At.UTC(),
				Previous:       v.Previous,
				Next:           v.Next,
				ElapsedSeconds: v.ElapsedSeconds,
			}
			if err := s.ports.History.Record(ctx, record); err != nil {
				s.logger.Warn("record rotation", "error", err)
			}
		}
		if s.ports.Hooks != nil {
			if err := s.ports.Hooks.PublishRotation(ctx, v); err != nil {
				s.logger.Warn("publish rotation hook", "error", err)
			}
		}
	}
}

// Run delivers Tick events every interval while the session is Active. No
// ticker exists while Idle. Run returns when ctx is done.
func (s *SessionService) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Second
	}
	for {
		if !s.Active() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.wake:
				continue
			}
		}
		if err := s.tickWhileActive(ctx, every); err != nil {
			return err
		}
	}
}

func (s *SessionService) tickWhileActive(ctx context.Context, every time.Duration) error {
	ticker := s.clock.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
			if !s.Active() {
				return nil
			}
		case at := <-ticker.Chan():
			if !s.Dispatch(ctx, domain.Tick{At: at}).Active {
				return nil
			}
		}
	}
}

type randomShuffler struct{}

func (randomShuffler) Perm(n int) []int {
	return rand.Perm(n)
}
