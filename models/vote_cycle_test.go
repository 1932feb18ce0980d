package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVoteCycleStatusAt(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	closed := start.Add(12 * time.Hour)

	tests := []struct {
		name     string
		closedAt *time.Time
		now      time.Time
		want     CycleStatus
	}{
		{"before start is scheduled", nil, start.Add(-time.Minute), CycleStatusScheduled},
		{"at start is active", nil, start, CycleStatusActive},
		{"inside window is active", nil, start.Add(time.Hour), CycleStatusActive},
		{"at end is ended", nil, end, CycleStatusEnded},
		{"after end is ended", nil, end.Add(time.Hour), CycleStatusEnded},
		{"manual close wins inside window", &closed, start.Add(time.Hour), CycleStatusClosed},
		{"manual close wins before start", &closed, start.Add(-time.Minute), CycleStatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cycle := &VoteCycle{StartAt: start, EndAt: end, ClosedAt: tt.closedAt}
			assert.Equal(t, tt.want, cycle.StatusAt(tt.now))
		})
	}
}

func TestVoteCycleIsVotableAt(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	cycle := &VoteCycle{StartAt: start, EndAt: end}

	assert.False(t, cycle.IsVotableAt(start.Add(-time.Second)))
	assert.True(t, cycle.IsVotableAt(start), "start boundary is inclusive")
	assert.True(t, cycle.IsVotableAt(start.Add(time.Hour)))
	assert.False(t, cycle.IsVotableAt(end), "end boundary is exclusive")

	closed := start.Add(time.Hour)
	cycle.ClosedAt = &closed
	assert.False(t, cycle.IsVotableAt(start.Add(2*time.Hour)))
}

func TestVoteCycleIsEffectivelyOpen(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	ended := &VoteCycle{StartAt: start, EndAt: end}
	assert.True(t, ended.IsEffectivelyOpen(), "past end but never closed still occupies its slot")

	closedAt := end.Add(time.Hour)
	closed := &VoteCycle{StartAt: start, EndAt: end, ClosedAt: &closedAt}
	assert.False(t, closed.IsEffectivelyOpen())
}

func TestVoteCycleEffectiveEndAt(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	open := &VoteCycle{StartAt: start, EndAt: end}
	assert.Equal(t, end, open.EffectiveEndAt())

	early := start.Add(time.Hour)
	closedEarly := &VoteCycle{StartAt: start, EndAt: end, ClosedAt: &early}
	assert.Equal(t, early, closedEarly.EffectiveEndAt())

	late := end.Add(time.Hour)
	closedLate := &VoteCycle{StartAt: start, EndAt: end, ClosedAt: &late}
	assert.Equal(t, end, closedLate.EffectiveEndAt(), "a close after the scheduled end does not extend the window")
}
