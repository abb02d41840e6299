package service

import (
	"testing"
)

func TestSplitEqually(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		n     int
		want  []int64
	}{
		{"even split", 6000, 3, []int64{2000, 2000, 2000}},
		{"remainder to earliest", 10000, 3, []int64{3334, 3333, 3333}},
		{"two cents over", 11, 3, []int64{4, 4, 3}},
		{"single member", 5000, 1, []int64{5000}},
		{"zero members", 5000, 0, nil},
		{"zero total", 0, 4, []int64{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitEqually(tt.total, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitEqually(%d, %d) returned %d shares, want %d", tt.total, tt.n, len(got), len(tt.want))
			}
			var sum int64
			for i, share := range got {
				if share != tt.want[i] {
					t.Errorf("share[%d] = %d, want %d", i, share, tt.want[i])
				}
				sum += share
			}
			if tt.n > 0 && sum != tt.total {
				t.Errorf("shares sum to %d, want %d", sum, tt.total)
			}
		})
	}
}

func TestRotationDisbursement(t *testing.T) {
	tests := []struct {
		name          string
		balance       int64
		target        int64
		wantPayout    int64
		wantShortfall int64
	}{
		{"fully funded", 500000, 200000, 200000, 0},
		{"exactly funded", 200000, 200000, 200000, 0},
		{"underfunded pays what exists", 50000, 200000, 50000, 150000},
		{"no target pays everything", 300000, 0, 300000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payout, shortfall := RotationDisbursement(tt.balance, tt.target)
			if payout != tt.wantPayout || shortfall != tt.wantShortfall {
				t.Errorf("RotationDisbursement(%d, %d) = (%d, %d), want (%d, %d)",
					tt.balance, tt.target, payout, shortfall, tt.wantPayout, tt.wantShortfall)
			}
		})
	}
}

func TestNextRotationIndex(t *testing.T) {
	tests := []struct {
		current int
		length  int
		want    int
	}{
		{0, 3, 1},
		{1, 3, 2},
		{2, 3, 0},
		{0, 1, 0},
		{5, 3, 0}, // pointer beyond a shrunken order wraps
	}

	for _, tt := range tests {
		if got := NextRotationIndex(tt.current, tt.length); got != tt.want {
			t.Errorf("NextRotationIndex(%d, %d) = %d, want %d", tt.current, tt.length, got, tt.want)
		}
	}
}

func TestShuffleOrderKeepsMembers(t *testing.T) {
	order := []int64{11, 22, 33, 44, 55, 66, 77}
	seen := make(map[int64]bool, len(order))
	for _, id := range order {
		seen[id] = true
	}

	ShuffleOrder(order)

	if len(order) != 7 {
		t.Fatalf("shuffle changed length to %d", len(order))
	}
	for _, id := range order {
		if !seen[id] {
			t.Errorf("shuffle introduced unknown id %d", id)
		}
		delete(seen, id)
	}
	if len(seen) != 0 {
		t.Errorf("shuffle dropped ids: %v", seen)
	}
}

func TestRotationOrderRoundTrip(t *testing.T) {
	order := []int64{3, 1, 2}
	encoded := EncodeRotationOrder(order)
	decoded, err := ParseRotationOrder(encoded)
	if err != nil {
		t.Fatalf("ParseRotationOrder(%q) failed: %v", encoded, err)
	}
	if len(decoded) != len(order) {
		t.Fatalf("round trip changed length: %v -> %v", order, decoded)
	}
	for i := range order {
		if decoded[i] != order[i] {
			t.Errorf("round trip changed order: %v -> %v", order, decoded)
			break
		}
	}
}

func TestParseRotationOrderEmpty(t *testing.T) {
	for _, raw := range []string{"", "[]"} {
		order, err := ParseRotationOrder(raw)
		if err != nil {
			t.Errorf("ParseRotationOrder(%q) failed: %v", raw, err)
		}
		if len(order) != 0 {
			t.Errorf("ParseRotationOrder(%q) = %v, want empty", raw, order)
		}
	}
}
