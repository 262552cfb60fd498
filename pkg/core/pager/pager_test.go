package pager

import "testing"

func TestNew_TotalPages(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{45, 20, 3},
		{40, 20, 2},
		{1, 20, 1},
		{0, 20, 0},
		{100, 0, 5},
	}
	for _, tt := range tests {
		p := New(tt.total, tt.pageSize, 1)
		if p.TotalPages != tt.want {
			t.Errorf("New(%d, %d).TotalPages = %d, want %d", tt.total, tt.pageSize, p.TotalPages, tt.want)
		}
	}
}

func TestNavigationBoundaries(t *testing.T) {
	first := New(45, 20, 1)
	if first.HasPrev() {
		t.Error("page 1: prev must be disabled")
	}
	if !first.HasNext() {
		t.Error("page 1: next must be enabled")
	}
	if first.Offset() != 0 {
		t.Errorf("page 1: offset = %d", first.Offset())
	}

	mid := New(45, 20, 2)
	if !mid.HasPrev() || !mid.HasNext() {
		t.Error("page 2: both buttons must be enabled")
	}
	if mid.Offset() != 20 {
		t.Errorf("page 2: offset = %d", mid.Offset())
	}

	last := New(45, 20, 3)
	if last.HasNext() {
		t.Error("page 3: next must be disabled")
	}
	if last.Next() != 3 {
		t.Errorf("page 3: Next() = %d", last.Next())
	}
	if got := last.Label(); got != "Page 3 of 3" {
		t.Errorf("Label() = %q", got)
	}
}

func TestNew_ClampsPage(t *testing.T) {
	p := New(45, 20, -4)
	if p.Page != 1 || p.Prev() != 1 {
		t.Errorf("Page = %d, Prev = %d", p.Page, p.Prev())
	}

	empty := New(0, 20, 1)
	if empty.HasPrev() || empty.HasNext() {
		t.Error("empty result must disable navigation")
	}
	if got := empty.Label(); got != "Page 1 of 0" {
		t.Errorf("Label() = %q", got)
	}
}
