package services

import (
	"math"
	"testing"
	"time"

	types "github.com/propflow/propflow-backend/internal/domain"
)

func TestHealthScorePenalties(t *testing.T) {
	cases := []struct {
		name string
		in   healthInputs
		want float64
	}{
		{
			name: "fresh project keeps a perfect score",
			in:   healthInputs{budgetTotal: 10000},
			want: 100,
		},
		{
			name: "20 percent overrun costs 10 points",
			in:   healthInputs{budgetTotal: 10000, actualCost: 12000},
			want: 90,
		},
		{
			name: "massive overrun caps at 30 points",
			in:   healthInputs{budgetTotal: 10000, actualCost: 50000},
			want: 70,
		},
		{
			name: "high and critical risks stack",
			in: healthInputs{
				budgetTotal: 10000,
				openRisks:   map[string]int{types.RiskSeverityHigh: 2, types.RiskSeverityCritical: 1},
			},
			want: 84,
		},
		{
			name: "risk penalty caps at 25",
			in: healthInputs{
				budgetTotal: 10000,
				openRisks:   map[string]int{types.RiskSeverityCritical: 10},
			},
			want: 75,
		},
		{
			name: "failed inspections cost by pass rate",
			in: healthInputs{
				budgetTotal: 10000,
				checkpoints: map[string]int{types.CheckpointStatusPassed: 1, types.CheckpointStatusFailed: 1},
			},
			want: 92.5,
		},
		{
			name: "pending checkpoints alone cost nothing",
			in: healthInputs{
				budgetTotal: 10000,
				checkpoints: map[string]int{types.CheckpointStatusPending: 5},
			},
			want: 100,
		},
		{
			name: "schedule lag of half the window costs 20",
			in: healthInputs{
				budgetTotal:      10000,
				scheduleProgress: 0.1,
				elapsedFraction:  0.6,
			},
			want: 80,
		},
		{
			name: "ahead of schedule costs nothing",
			in: healthInputs{
				budgetTotal:      10000,
				scheduleProgress: 0.8,
				elapsedFraction:  0.3,
			},
			want: 100,
		},
		{
			name: "everything wrong clamps at zero",
			in: healthInputs{
				budgetTotal:     100,
				actualCost:      10000,
				openRisks:       map[string]int{types.RiskSeverityCritical: 4},
				checkpoints:     map[string]int{types.CheckpointStatusFailed: 10},
				elapsedFraction: 1,
			},
			want: 10,
		},
	}

	for _, tc := range cases {
		if got := healthScore(tc.in); math.Abs(got-tc.want) > 0.01 {
			t.Errorf("%s: got %.2f want %.2f", tc.name, got, tc.want)
		}
	}
}

func TestHealthLabelBands(t *testing.T) {
	cases := map[float64]string{
		100: "Healthy",
		80:  "Healthy",
		79:  "Watch",
		60:  "Watch",
		59:  "At risk",
		40:  "At risk",
		39:  "Critical",
		0:   "Critical",
	}
	for score, want := range cases {
		if got := healthLabel(score); got != want {
			t.Errorf("label(%.0f): got %q want %q", score, got, want)
		}
	}
}

func TestScheduleProgressUsesWeights(t *testing.T) {
	milestones := []*types.Milestone{
		{Status: types.MilestoneStatusCompleted, WeightPct: 30},
		{Status: types.MilestoneStatusInProgress, WeightPct: 50},
		{Status: types.MilestoneStatusPlanned, WeightPct: 20},
	}
	if got := scheduleProgress(milestones); math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("weighted progress: got %.3f want 0.300", got)
	}
}

func TestScheduleProgressFallsBackToCountRatio(t *testing.T) {
	milestones := []*types.Milestone{
		{Status: types.MilestoneStatusCompleted},
		{Status: types.MilestoneStatusCompleted},
		{Status: types.MilestoneStatusPlanned},
		{Status: types.MilestoneStatusPlanned},
	}
	if got := scheduleProgress(milestones); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("unweighted progress: got %.3f want 0.500", got)
	}
	if got := scheduleProgress(nil); got != 0 {
		t.Fatalf("no milestones: got %.3f want 0", got)
	}
}

func TestElapsedFraction(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10)

	mid := start.AddDate(0, 0, 5)
	if got := elapsedFraction(&start, &end, mid); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("midpoint: got %.3f want 0.500", got)
	}
	if got := elapsedFraction(&start, &end, end.AddDate(0, 1, 0)); got != 1 {
		t.Fatalf("past end should clamp to 1, got %.3f", got)
	}
	if got := elapsedFraction(&start, &end, start.AddDate(0, 0, -3)); got != 0 {
		t.Fatalf("before start should clamp to 0, got %.3f", got)
	}
	if got := elapsedFraction(nil, &end, mid); got != 0 {
		t.Fatalf("missing start date should yield 0, got %.3f", got)
	}
	if got := elapsedFraction(&end, &start, mid); got != 0 {
		t.Fatalf("inverted window should yield 0, got %.3f", got)
	}
}

func TestCheckpointPassRate(t *testing.T) {
	counts := map[string]int{
		types.CheckpointStatusPassed:  3,
		types.CheckpointStatusFailed:  1,
		types.CheckpointStatusPending: 7,
	}
	if got := checkpointPassRate(counts); math.Abs(got-75) > 1e-9 {
		t.Fatalf("pass rate: got %.1f want 75.0", got)
	}
	if got := checkpointPassRate(map[string]int{types.CheckpointStatusPending: 2}); got != 0 {
		t.Fatalf("uninspected: got %.1f want 0", got)
	}
}
