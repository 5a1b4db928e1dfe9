package forecast

import (
	"testing"

	"contas/internal/core"
)

func TestTrailingAverage(t *testing.T) {
	history := []MonthNet{
		{Year: 2025, Month: 1, Net: core.Money{Cents: 10000}},
		{Year: 2025, Month: 2, Net: core.Money{Cents: -2000}},
		{Year: 2025, Month: 3, Net: core.Money{Cents: 5000}},
		{Year: 2025, Month: 4, Net: core.Money{Cents: 7000}},
	}

	tests := []struct {
		name    string
		history []MonthNet
		window  int
		want    int64
	}{
		{
			name:    "window of three averages last three",
			history: history,
			window:  3,
			want:    (-2000 + 5000 + 7000) / 3,
		},
		{
			name:    "window larger than history uses everything",
			history: history,
			window:  12,
			want:    (10000 - 2000 + 5000 + 7000) / 4,
		},
		{
			name:    "window of one takes last month",
			history: history,
			window:  1,
			want:    7000,
		},
		{
			name:    "empty history averages to zero",
			history: nil,
			window:  3,
			want:    0,
		},
		{
			name: "half-up rounding on fractional cents",
			history: []MonthNet{
				{Year: 2025, Month: 1, Net: core.Money{Cents: 1}},
				{Year: 2025, Month: 2, Net: core.Money{Cents: 2}},
			},
			window: 2,
			want:   2, // 1.5 rounds half-up
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrailingAverage(tt.history, tt.window)
			if got.Cents != tt.want {
				t.Errorf("TrailingAverage() = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestProject(t *testing.T) {
	opening := core.Money{Cents: 100000}
	history := []MonthNet{
		{Year: 2025, Month: 10, Net: core.Money{Cents: 3000}},
		{Year: 2025, Month: 11, Net: core.Money{Cents: 3000}},
		{Year: 2025, Month: 12, Net: core.Money{Cents: 3000}},
	}

	got := Project(opening, history, 3, 3)
	if len(got) != 3 {
		t.Fatalf("Project() returned %d months, want 3", len(got))
	}

	// Current balance is opening + observed nets = 109000; each projected
	// month adds the trailing average of 3000.
	want := []MonthBalance{
		{Year: 2026, Month: 1, Balance: core.Money{Cents: 112000}},
		{Year: 2026, Month: 2, Balance: core.Money{Cents: 115000}},
		{Year: 2026, Month: 3, Balance: core.Money{Cents: 118000}},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Project()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestProject_EmptyHistory(t *testing.T) {
	if got := Project(core.Money{Cents: 100}, nil, 3, 6); got != nil {
		t.Errorf("Project() with empty history = %v, want nil", got)
	}
}

func TestProject_DefaultWindow(t *testing.T) {
	history := []MonthNet{
		{Year: 2025, Month: 11, Net: core.Money{Cents: 1000}},
		{Year: 2025, Month: 12, Net: core.Money{Cents: 2000}},
	}
	got := Project(core.Money{}, history, 0, 1)
	if len(got) != 1 {
		t.Fatalf("Project() returned %d months, want 1", len(got))
	}
	// avg(1000, 2000) = 1500; balance 3000 + 1500.
	if got[0].Balance.Cents != 4500 {
		t.Errorf("Project()[0].Balance = %d, want 4500", got[0].Balance.Cents)
	}
	if got[0].Year != 2026 || got[0].Month != 1 {
		t.Errorf("Project()[0] dated %d-%d, want 2026-1", got[0].Year, got[0].Month)
	}
}
