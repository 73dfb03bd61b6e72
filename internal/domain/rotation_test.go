package domain

import (
	"sync"
	"testing"
	"time"
)

func TestNewRotation(t *testing.T) {
	tests := []struct {
		name     string
		names    []string
		expected int
	}{
		{
			name:     "normal providers",
			names:    []string{"anthropic", "openai"},
			expected: 2,
		},
		{
			name:     "empty slice",
			names:    []string{},
			expected: 0,
		},
		{
			name:     "nil slice",
			names:    nil,
			expected: 0,
		},
		{
			name:     "with duplicates",
			names:    []string{"anthropic", "openai", "anthropic"},
			expected: 2, // Duplicates removed
		},
		{
			name:     "with empty strings",
			names:    []string{"anthropic", "", "openai", ""},
			expected: 2, // Empty strings skipped
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRotation(tt.names, time.Minute)
			if got := r.ActiveCount(); got != tt.expected {
				t.Errorf("ActiveCount() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestRotation_Next_RoundRobin(t *testing.T) {
	names := []string{"anthropic", "openai", "azure"}
	r := NewRotation(names, 0)

	for i := 0; i < 9; i++ {
		name, err := r.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		expected := names[i%3]
		if name != expected {
			t.Errorf("iteration %d: got %s, want %s", i, name, expected)
		}
	}
}

func TestRotation_Next_Empty(t *testing.T) {
	r := NewRotation(nil, 0)

	_, err := r.Next()
	if err != ErrNoProvidersAvailable {
		t.Errorf("Next() error = %v, want %v", err, ErrNoProvidersAvailable)
	}
}

func TestRotation_MarkDownAndRevive(t *testing.T) {
	r := NewRotation([]string{"anthropic", "openai"}, 0)

	r.MarkDown("anthropic")

	if got := r.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount() after MarkDown = %d, want 1", got)
	}
	if got := r.DownCount(); got != 1 {
		t.Errorf("DownCount() after MarkDown = %d, want 1", got)
	}
	if !r.IsDown("anthropic") {
		t.Error("IsDown(anthropic) = false, want true")
	}

	// Only openai should be selected while anthropic is down.
	for i := 0; i < 4; i++ {
		name, err := r.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if name != "openai" {
			t.Errorf("Next() = %s, want openai", name)
		}
	}

	r.Revive("anthropic")

	if got := r.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount() after Revive = %d, want 2", got)
	}
	if r.IsDown("anthropic") {
		t.Error("IsDown(anthropic) = true after Revive, want false")
	}
}

func TestRotation_MarkDown_UnknownProvider(t *testing.T) {
	r := NewRotation([]string{"anthropic"}, 0)

	r.MarkDown("unmanaged")

	if got := r.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount() = %d, want 1 (unknown names ignored)", got)
	}
	if got := r.DownCount(); got != 0 {
		t.Errorf("DownCount() = %d, want 0", got)
	}
}

func TestRotation_AllDown(t *testing.T) {
	r := NewRotation([]string{"anthropic", "openai"}, 0)
	r.MarkDown("anthropic")
	r.MarkDown("openai")

	_, err := r.Next()
	if err != ErrNoProvidersAvailable {
		t.Errorf("Next() error = %v, want %v", err, ErrNoProvidersAvailable)
	}
}

func TestRotation_CooldownRevival(t *testing.T) {
	r := NewRotation([]string{"anthropic", "openai"}, 10*time.Millisecond)

	r.MarkDown("anthropic")
	if got := r.ActiveCount(); got != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", got)
	}

	time.Sleep(20 * time.Millisecond)

	// Next triggers revival of expired providers.
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got := r.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount() after cooldown = %d, want 2", got)
	}
}

func TestRotation_Concurrent(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e"}
	r := NewRotation(names, 0)

	const goroutines = 50
	const iterations = 500

	counts := make(map[string]int)
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				name, err := r.Next()
				if err != nil {
					t.Errorf("Next() error = %v", err)
					return
				}
				mu.Lock()
				counts[name]++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != goroutines*iterations {
		t.Errorf("total selections = %d, want %d", total, goroutines*iterations)
	}

	// Round-robin should spread load roughly evenly.
	expected := total / len(names)
	tolerance := expected / 10
	for name, c := range counts {
		diff := c - expected
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Errorf("provider %s selected %d times, expected ~%d (±%d)", name, c, expected, tolerance)
		}
	}
}
