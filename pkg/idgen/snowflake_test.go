package idgen

import (
	"strings"
	"sync"
	"testing"
)

func TestNextIDUnique(t *testing.T) {
	const perGoroutine = 1000
	const goroutines = 8

	var mu sync.Mutex
	seen := make(map[int64]bool, perGoroutine*goroutines)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("duplicate id %d", id)
					return
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	if len(seen) != perGoroutine*goroutines {
		t.Errorf("got %d unique ids, want %d", len(seen), perGoroutine*goroutines)
	}
}

func TestNextIDMonotonicWithinGenerator(t *testing.T) {
	prev := NextID()
	for i := 0; i < 10000; i++ {
		id := NextID()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestReferenceNumbers(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"loan", GenerateLoanNo, "LON"},
		{"contribution", GenerateContributionNo, "CTB"},
		{"transaction", GenerateTransactionNo, "TXN"},
		{"cycle", GenerateCycleNo, "CYC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			no := tt.gen()
			if !strings.HasPrefix(no, tt.prefix) {
				t.Errorf("%s = %s, want prefix %s", tt.name, no, tt.prefix)
			}
			// prefix + 14-digit timestamp + 8-digit suffix
			if len(no) != len(tt.prefix)+22 {
				t.Errorf("%s length = %d, want %d", tt.name, len(no), len(tt.prefix)+22)
			}
			if other := tt.gen(); other == no {
				t.Errorf("two consecutive %s numbers collided: %s", tt.name, no)
			}
		})
	}
}
