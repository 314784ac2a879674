package domain_test

import (
	"reflect"
	"testing"
	"time"

	"mobtime/internal/modules/session/domain"
)

// dispatch reduces ev and resolves clock requests with now, the way the
// runtime does. It returns every non-request signal produced.
func dispatch(state domain.State, now time.Time, ev domain.Event) (domain.State, []domain.Signal) {
	var out []domain.Signal
	queue := []domain.Event{ev}
	for len(queue) > 0 {
		var signals []domain.Signal
		state, signals = domain.Reduce(state, queue[0])
		queue = queue[1:]
		for _, sig := range signals {
			if req, ok := sig.(domain.RequestNow); ok {
				queue = append(queue, domain.ClockRead{Transition: req.Transition, At: now})
				continue
			}
			out = append(out, sig)
		}
	}
	return state, out
}

func countRotations(signals []domain.Signal) int {
	n := 0
	for _, sig := range signals {
		if _, ok := sig.(domain.Rotated); ok {
			n++
		}
	}
	return n
}

func newState(interval int, users ...string) domain.State {
	s := domain.NewState(domain.DefaultSnapshot(), "rotate.wav")
	s.IntervalSeconds = interval
	s.Users = usersOf(users...)
	return s
}

func TestStartStopAccumulatesAcrossPauses(t *testing.T) {
	t.Parallel()
	s := newState(3600, "A", "B")
	s, _ = dispatch(s, at(0), domain.StartRequested{})
	s, _ = dispatch(s, at(1), domain.Tick{At: at(1)})
	s, _ = dispatch(s, at(30), domain.Tick{At: at(30)})
	s, _ = dispatch(s, at(40), domain.StopRequested{})
	if s.Active {
		t.Fatalf("expected idle after stop")
	}
	if got := s.ElapsedSeconds(); got != 40 {
		t.Fatalf("expected 40 seconds after first stint, got %d", got)
	}

	s, _ = dispatch(s, at(100), domain.Tick{At: at(100)})
	if got := s.ElapsedSeconds(); got != 40 {
		t.Fatalf("ticks while idle must be ignored, got %d", got)
	}

	s, _ = dispatch(s, at(500), domain.StartRequested{})
	s, _ = dispatch(s, at(520), domain.Tick{At: at(520)})
	s, _ = dispatch(s, at(525), domain.StopRequested{})
	if got := s.ElapsedSeconds(); got != 65 {
		t.Fatalf("expected 40+25=65 seconds, got %d", got)
	}
	if len(s.Durations) != 2 {
		t.Fatalf("expected two closed intervals, got %d", len(s.Durations))
	}
	if !s.Moment.Equal(at(525)) {
		t.Fatalf("moment must track the last clock read, got %v", s.Moment)
	}
}

func TestStartTwiceIsStay(t *testing.T) {
	t.Parallel()
	s := newState(3600, "A")
	s, signals := domain.Reduce(s, domain.StartRequested{})
	if req, ok := signals[0].(domain.RequestNow); !ok || req.Transition != domain.TransitionStart {
		t.Fatalf("first start must request a start transition, got %#v", signals)
	}
	s, _ = domain.Reduce(s, domain.ClockRead{Transition: domain.TransitionStart, At: at(0)})

	s, signals = domain.Reduce(s, domain.StartRequested{})
	if req, ok := signals[0].(domain.RequestNow); !ok || req.Transition != domain.TransitionStay {
		t.Fatalf("second start must classify as stay, got %#v", signals)
	}
	s, _ = domain.Reduce(s, domain.ClockRead{Transition: domain.TransitionStay, At: at(5)})
	if len(s.Durations) != 1 {
		t.Fatalf("start twice must not open a second interval, got %d", len(s.Durations))
	}
	if got := s.ElapsedSeconds(); got != 5 {
		t.Fatalf("stay must extend the open interval, got %d", got)
	}
}

func TestStopWhileIdleDoesNotExtendClosedInterval(t *testing.T) {
	t.Parallel()
	s := newState(3600, "A")
	s, _ = dispatch(s, at(0), domain.StartRequested{})
	s, _ = dispatch(s, at(10), domain.StopRequested{})
	s, _ = dispatch(s, at(900), domain.StopRequested{})
	if got := s.ElapsedSeconds(); got != 10 {
		t.Fatalf("idle time must not be counted, got %d", got)
	}
}

func TestRotationFiresExactlyOnceAtThreshold(t *testing.T) {
	t.Parallel()
	s := newState(60, "A", "B", "C")
	s.NotificationEnabled = true
	s, _ = dispatch(s, at(0), domain.StartRequested{})

	total := 0
	var rotated []domain.Signal
	for i := 1; i <= 240; i++ {
		var signals []domain.Signal
		moment := at(float64(i) * 0.5)
		s, signals = dispatch(s, moment, domain.Tick{At: moment})
		if n := countRotations(signals); n > 0 {
			total += n
			rotated = signals
			if i != 120 {
				t.Fatalf("rotation fired at tick %d, expected tick 120 (60s)", i)
			}
		}
	}
	if total != 1 {
		t.Fatalf("expected exactly one rotation, got %d", total)
	}
	if s.Active || len(s.Durations) != 0 {
		t.Fatalf("rotation must stop and clear tracking: active=%v durations=%d", s.Active, len(s.Durations))
	}
	if got := names(s.Users); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Fatalf("expected [B C A], got %v", got)
	}

	var sawSound, sawNotify bool
	for _, sig := range rotated {
		switch v := sig.(type) {
		case domain.PlaySound:
			sawSound = v.Asset == "rotate.wav"
		case domain.PostNotification:
			sawNotify = v.Message == domain.RotationMessage("B")
		case domain.Rotated:
			if v.Previous != "A" || v.Next != "B" || v.ElapsedSeconds != 60 {
				t.Fatalf("unexpected rotated signal %+v", v)
			}
		}
	}
	if !sawSound || !sawNotify {
		t.Fatalf("expected sound and notification, got %#v", rotated)
	}
}

func TestRotationWithZeroThresholdIsImmediate(t *testing.T) {
	t.Parallel()
	s := newState(0, "A", "B")
	s.SoundEnabled = false
	s, signals := dispatch(s, at(0), domain.StartRequested{})
	if countRotations(signals) != 0 {
		t.Fatalf("start itself must not rotate")
	}
	s, signals = dispatch(s, at(0.25), domain.Tick{At: at(0.25)})
	if countRotations(signals) != 1 {
		t.Fatalf("expected immediate rotation on first tick, got %#v", signals)
	}
	for _, sig := range signals {
		if _, ok := sig.(domain.PlaySound); ok {
			t.Fatalf("sound disabled but PlaySound emitted")
		}
		if _, ok := sig.(domain.PostNotification); ok {
			t.Fatalf("notification disabled but PostNotification emitted")
		}
	}
	if got := names(s.Users); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Fatalf("expected [B A], got %v", got)
	}
}

func TestZeroThresholdNeedsTrackedTime(t *testing.T) {
	t.Parallel()
	s := newState(0, "A", "B")
	s, signals := dispatch(s, at(0), domain.StopRequested{})
	if countRotations(signals) != 0 || s.Active {
		t.Fatalf("stop while idle with nothing tracked must not rotate, got %#v", signals)
	}
	s, signals = dispatch(s, at(1), domain.Reset{})
	s, more := dispatch(s, at(2), domain.StopRequested{})
	if countRotations(append(signals, more...)) != 0 {
		t.Fatalf("reset session must not rotate on re-issued stop")
	}
	if got := names(s.Users); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("roster must be untouched, got %v", got)
	}
}

func TestReissuedStopChecksThresholdWhenTimeIsTracked(t *testing.T) {
	t.Parallel()
	s := newState(3600, "A", "B")
	s, _ = dispatch(s, at(0), domain.StartRequested{})
	s, _ = dispatch(s, at(90), domain.StopRequested{})
	s, _ = domain.Reduce(s, domain.EditInterval{Field: domain.FieldHours, Raw: "0"})
	s, _ = domain.Reduce(s, domain.EditInterval{Field: domain.FieldMinutes, Raw: "1"})

	s, signals := dispatch(s, at(100), domain.StopRequested{})
	if countRotations(signals) != 1 {
		t.Fatalf("expected rotation once the lowered interval is exceeded, got %#v", signals)
	}
	if got := s.ElapsedSeconds(); got != 0 {
		t.Fatalf("rotation must clear tracked time, got %d", got)
	}
	if got := names(s.Users); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Fatalf("expected [B A], got %v", got)
	}
}

func TestRotationNeverFiresBelowLargeThreshold(t *testing.T) {
	t.Parallel()
	s := newState(8*3600, "A", "B")
	s, _ = dispatch(s, at(0), domain.StartRequested{})
	for i := 1; i <= 3600; i++ {
		var signals []domain.Signal
		s, signals = dispatch(s, at(float64(i)), domain.Tick{At: at(float64(i))})
		if countRotations(signals) != 0 {
			t.Fatalf("unexpected rotation at %ds", i)
		}
	}
	if !s.Active {
		t.Fatalf("session must still be active")
	}
}

func TestRotationOfSingleParticipantIsIdentity(t *testing.T) {
	t.Parallel()
	s := newState(1, "solo")
	s, _ = dispatch(s, at(0), domain.StartRequested{})
	s, signals := dispatch(s, at(2), domain.Tick{At: at(2)})
	if countRotations(signals) != 1 {
		t.Fatalf("expected rotation signal")
	}
	if got := names(s.Users); !reflect.DeepEqual(got, []string{"solo"}) {
		t.Fatalf("expected [solo], got %v", got)
	}
}

func TestResetClearsWithoutSideEffects(t *testing.T) {
	t.Parallel()
	s := newState(10, "A", "B")
	s, _ = dispatch(s, at(0), domain.StartRequested{})
	s, _ = dispatch(s, at(5), domain.Tick{At: at(5)})
	s, signals := dispatch(s, at(6), domain.Reset{})
	if len(signals) != 0 {
		t.Fatalf("reset must not emit signals, got %#v", signals)
	}
	if s.Active || len(s.Durations) != 0 {
		t.Fatalf("reset must force idle and clear durations")
	}
	if got := names(s.Users); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("reset must not rotate, got %v", got)
	}
}

func TestAddParticipantUsesDraftAndPersists(t *testing.T) {
	t.Parallel()
	s := newState(1800)
	s, _ = domain.Reduce(s, domain.EditDraft{Text: "octocat"})
	s, signals := domain.Reduce(s, domain.AddParticipant{})
	if s.Draft != "" {
		t.Fatalf("draft must be cleared on success, got %q", s.Draft)
	}
	if len(s.Users) != 1 || s.Users[0].Avatar() != "https://github.com/octocat.png" {
		t.Fatalf("unexpected users %+v", s.Users)
	}
	persist, ok := signals[len(signals)-1].(domain.PersistSnapshot)
	if !ok || len(persist.Snapshot.Users) != 1 {
		t.Fatalf("expected persist signal with one user, got %#v", signals)
	}

	s, _ = domain.Reduce(s, domain.EditDraft{Text: "octocat"})
	s, signals = domain.Reduce(s, domain.AddParticipant{})
	if len(s.Users) != 1 || len(signals) != 0 {
		t.Fatalf("duplicate must be silently rejected, users=%d signals=%d", len(s.Users), len(signals))
	}
	if s.Draft != "octocat" {
		t.Fatalf("rejected draft must be kept, got %q", s.Draft)
	}
}

func TestRemovingDriverMidSession(t *testing.T) {
	t.Parallel()
	s := newState(10, "A", "B", "C")
	s, _ = dispatch(s, at(0), domain.StartRequested{})
	s, _ = dispatch(s, at(1), domain.RemoveParticipant{Username: "A"})
	s, _ = dispatch(s, at(11), domain.Tick{At: at(11)})
	if got := names(s.Users); !reflect.DeepEqual(got, []string{"C", "B"}) {
		t.Fatalf("expected [C B], got %v", got)
	}
}

func TestShuffleOnlyWhileIdle(t *testing.T) {
	t.Parallel()
	s := newState(1800, "A", "B", "C")
	_, signals := domain.Reduce(s, domain.ShuffleRequested{})
	if req, ok := signals[0].(domain.RequestShuffle); !ok || req.Count != 3 {
		t.Fatalf("expected shuffle request for 3, got %#v", signals)
	}
	s, _ = domain.Reduce(s, domain.Shuffled{Order: []int{2, 1, 0}})
	if got := names(s.Users); !reflect.DeepEqual(got, []string{"C", "B", "A"}) {
		t.Fatalf("expected [C B A], got %v", got)
	}

	s, _ = dispatch(s, at(0), domain.StartRequested{})
	if _, signals := domain.Reduce(s, domain.ShuffleRequested{}); len(signals) != 0 {
		t.Fatalf("shuffle must be refused while active, got %#v", signals)
	}
	s, _ = domain.Reduce(s, domain.Shuffled{Order: []int{0, 1, 2}})
	if got := names(s.Users); !reflect.DeepEqual(got, []string{"C", "B", "A"}) {
		t.Fatalf("late shuffle result must be ignored while active, got %v", got)
	}
}

func TestEditIntervalAndFlagsPersist(t *testing.T) {
	t.Parallel()
	s := newState(1800)
	s, signals := domain.Reduce(s, domain.EditInterval{Field: domain.FieldHours, Raw: "1"})
	if s.IntervalSeconds != 4500 || len(signals) != 1 {
		t.Fatalf("expected 4500 and one persist, got %d %#v", s.IntervalSeconds, signals)
	}
	s, signals = domain.Reduce(s, domain.EditInterval{Field: domain.FieldHours, Raw: "x"})
	if s.IntervalSeconds != 4500 || len(signals) != 0 {
		t.Fatalf("invalid input must keep total and skip persistence")
	}
	s, _ = domain.Reduce(s, domain.SetNotification{Enabled: true})
	s, _ = domain.Reduce(s, domain.SetSound{Enabled: false})
	snap := s.Snapshot()
	if !snap.EnabledNotification || snap.EnabledSound {
		t.Fatalf("flags not reflected in snapshot: %+v", snap)
	}
}

func TestTickDoesNotPersist(t *testing.T) {
	t.Parallel()
	s := newState(1800, "A")
	s, _ = dispatch(s, at(0), domain.StartRequested{})
	_, signals := dispatch(s, at(1), domain.Tick{At: at(1)})
	if len(signals) != 0 {
		t.Fatalf("plain tick must not emit signals, got %#v", signals)
	}
}

func TestAvatarLoadFailedIsNotPersisted(t *testing.T) {
	t.Parallel()
	s := newState(1800, "A")
	s, signals := domain.Reduce(s, domain.AvatarLoadFailed{Username: "A"})
	if !s.Users[0].AvatarFailed {
		t.Fatalf("expected avatar fallback flag")
	}
	if len(signals) != 0 {
		t.Fatalf("avatar fallback must not persist, got %#v", signals)
	}
}
