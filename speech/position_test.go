package speech

import "testing"

func TestPositionRatio(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want float64
	}{
		{"no units", Position{Index: 0, Total: 0}, 0},
		{"start", Position{Index: 0, Total: 4}, 0},
		{"halfway", Position{Index: 2, Total: 4}, 0.5},
		{"finished", Position{Index: 4, Total: 4}, 1},
		{"clamped above", Position{Index: 5, Total: 4}, 1},
		{"clamped below", Position{Index: -1, Total: 4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.Ratio(); got != tt.want {
				t.Errorf("Ratio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrackerAdvance(t *testing.T) {
	tr := NewTracker()
	tr.Reset(4)

	tr.Advance()
	tr.Advance()

	got := tr.Snapshot()
	if got.Index != 2 {
		t.Errorf("Index = %d, want 2", got.Index)
	}
	if got.Ratio() != 0.5 {
		t.Errorf("Ratio() = %v, want 0.5", got.Ratio())
	}
}

func TestTrackerAdvanceCapsAtTotal(t *testing.T) {
	tr := NewTracker()
	tr.Reset(2)
	for i := 0; i < 5; i++ {
		tr.Advance()
	}
	if got := tr.Snapshot().Index; got != 2 {
		t.Errorf("Index = %d, want 2", got)
	}
}

func TestTrackerSetClamps(t *testing.T) {
	tr := NewTracker()
	tr.Reset(4)

	tr.Set(10)
	if got := tr.Snapshot().Index; got != 4 {
		t.Errorf("Set(10): Index = %d, want 4", got)
	}

	tr.Set(-3)
	if got := tr.Snapshot().Index; got != 0 {
		t.Errorf("Set(-3): Index = %d, want 0", got)
	}
}

func TestTrackerWatchers(t *testing.T) {
	tr := NewTracker()

	var first, second []Position
	tr.Watch(func(p Position) { first = append(first, p) })
	tr.Watch(func(p Position) { second = append(second, p) })

	tr.Reset(3)
	tr.Advance()
	tr.Set(0)

	want := []Position{{0, 3}, {1, 3}, {0, 3}}
	if len(first) != len(want) {
		t.Fatalf("first watcher saw %d changes, want %d", len(first), len(want))
	}
	for i := range want {
		if first[i] != want[i] {
			t.Errorf("first watcher change %d = %+v, want %+v", i, first[i], want[i])
		}
		if second[i] != want[i] {
			t.Errorf("second watcher change %d = %+v, want %+v", i, second[i], want[i])
		}
	}
}
