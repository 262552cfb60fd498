package slider

import (
	"strings"
	"testing"
)

func TestSetFrom_ClampsToUpperHandle(t *testing.T) {
	s := New(0, 100)
	s.SetTo(40)
	s.SetFrom(70)

	if s.From != 40 {
		t.Errorf("From = %v, want 40", s.From)
	}
	if s.From > s.To {
		t.Fatalf("From %v > To %v", s.From, s.To)
	}
}

func TestSetTo_ClampsToLowerHandle(t *testing.T) {
	s := New(0, 100)
	s.SetFrom(60)
	s.SetTo(10)

	if s.To != 60 {
		t.Errorf("To = %v, want 60", s.To)
	}
}

func TestSet_StaysOnTrack(t *testing.T) {
	tests := []struct {
		name             string
		from, to         float64
		wantFrom, wantTo float64
	}{
		{"inside", 10, 90, 10, 90},
		{"below min", -50, 20, 0, 20},
		{"above max", 30, 500, 30, 100},
		{"crossed", 80, 20, 80, 80},
		{"rounded to step", 10.4, 89.6, 10, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(0, 100)
			s.Set(tt.from, tt.to)
			if s.From != tt.wantFrom || s.To != tt.wantTo {
				t.Errorf("got [%v, %v], want [%v, %v]", s.From, s.To, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

// Последовательность произвольных движений не должна нарушать from <= to.
func TestInvariantHoldsOverMoves(t *testing.T) {
	s := New(0, 1000)
	moves := []float64{900, 100, 1200, -3, 500, 499, 501, 0, 1000}
	for i, v := range moves {
		if i%2 == 0 {
			s.SetFrom(v)
		} else {
			s.SetTo(v)
		}
		if s.From > s.To {
			t.Fatalf("move %d (%v): From %v > To %v", i, v, s.From, s.To)
		}
	}
}

func TestGradient(t *testing.T) {
	s := New(0, 200)
	s.Set(50, 150)

	got := s.Gradient("#333", "#4ea1ff")
	want := "linear-gradient(to right, #333 0%, #333 25.00%, #4ea1ff 25.00%, #4ea1ff 75.00%, #333 75.00%, #333 100%)"
	if got != want {
		t.Errorf("Gradient =\n%s\nwant\n%s", got, want)
	}
	if !strings.HasPrefix(got, "linear-gradient(to right") {
		t.Errorf("unexpected gradient %q", got)
	}
}

func TestZIndex(t *testing.T) {
	s := New(0, 100)
	if _, to := s.ZIndex(); to != 0 {
		t.Errorf("to z-index = %d, want 0", to)
	}

	s.SetTo(0)
	from, to := s.ZIndex()
	if to <= from {
		t.Errorf("upper handle at minimum must be on top: from=%d to=%d", from, to)
	}
}
