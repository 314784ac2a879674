package domain_test

import (
	"testing"
	"time"

	"mobtime/internal/modules/session/domain"
)

var t0 = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return t0.Add(time.Duration(seconds * float64(time.Second)))
}

func TestStartNewPrependsOpenInterval(t *testing.T) {
	t.Parallel()
	var durations domain.Durations
	durations = domain.StartNew(durations, at(0))
	durations = domain.StartNew(durations, at(10))
	if len(durations) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(durations))
	}
	if !durations[0].Start.Equal(at(10)) || !durations[0].End.Equal(at(10)) {
		t.Fatalf("head must be the newest zero-length interval, got %+v", durations[0])
	}
}

func TestExtendLatestOnlyTouchesHead(t *testing.T) {
	t.Parallel()
	durations := domain.Durations{
		{Start: at(100), End: at(100)},
		{Start: at(0), End: at(50)},
	}
	extended := domain.ExtendLatest(durations, at(130))
	if !extended[0].End.Equal(at(130)) {
		t.Fatalf("head end not extended: %+v", extended[0])
	}
	if !extended[1].End.Equal(at(50)) {
		t.Fatalf("closed interval modified: %+v", extended[1])
	}
	if !durations[0].End.Equal(at(100)) {
		t.Fatalf("input sequence mutated: %+v", durations[0])
	}
	if got := domain.ExtendLatest(nil, at(5)); len(got) != 0 {
		t.Fatalf("empty sequence must stay empty, got %v", got)
	}
}

func TestElapsedSecondsTruncatesEachInterval(t *testing.T) {
	t.Parallel()
	if got := domain.ElapsedSeconds(nil); got != 0 {
		t.Fatalf("expected 0 for empty sequence, got %d", got)
	}
	durations := domain.Durations{
		{Start: at(100), End: at(101.9)},
		{Start: at(0), End: at(60.5)},
	}
	if got := domain.ElapsedSeconds(durations); got != 61 {
		t.Fatalf("expected 1+60=61 seconds, got %d", got)
	}
	inverted := domain.Durations{{Start: at(10), End: at(5)}}
	if got := domain.ElapsedSeconds(inverted); got != 0 {
		t.Fatalf("inverted interval must not count negative, got %d", got)
	}
}

func TestElapsedMatchesWallClockWithoutGaps(t *testing.T) {
	t.Parallel()
	durations := domain.StartNew(nil, at(0))
	for i := 1; i <= 90; i++ {
		durations = domain.ExtendLatest(durations, at(float64(i)*0.5))
	}
	if got := domain.ElapsedSeconds(durations); got != 45 {
		t.Fatalf("expected 45 seconds of wall clock, got %d", got)
	}
}
