package workerpool

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNewSizing(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		jobs    int
		want    int
	}{
		{"explicit", 4, 100, 4},
		{"shrunk to jobs", 8, 3, 3},
		{"default", 0, 0, DefaultWorkers},
		{"negative", -1, 0, DefaultWorkers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New[int, int](tt.workers, tt.jobs)
			if got := p.Workers(); got != tt.want {
				t.Errorf("Workers() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPoolProcessesAllJobs(t *testing.T) {
	p := New[int, int](3, 10)
	p.Start(context.Background(), func(_ context.Context, n int) int { return n * n })
	for i := 1; i <= 10; i++ {
		p.Submit(i)
	}
	p.Close()

	sum := 0
	count := 0
	for r := range p.Results() {
		sum += r
		count++
	}
	if count != 10 {
		t.Fatalf("got %d results, want 10", count)
	}
	if sum != 385 {
		t.Errorf("sum of squares = %d, want 385", sum)
	}
}

func TestMapPreservesOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	got, err := Map(context.Background(), 3, items, func(_ context.Context, s string) string {
		return strings.ToUpper(s)
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if strings.Join(got, "") != "ABCDEFG" {
		t.Errorf("Map = %v", got)
	}
}

func TestMapEmpty(t *testing.T) {
	got, err := Map(context.Background(), 2, []int{}, func(_ context.Context, n int) int { return n })
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestMapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := Map(ctx, 2, []int{1, 2, 3, 4}, func(_ context.Context, n int) int {
		calls.Add(1)
		return n
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls.Load() != 0 {
		t.Errorf("fn called %d times after cancellation", calls.Load())
	}
}

func TestTrySubmitFullQueue(t *testing.T) {
	p := New[int, int](1, 1)
	// Not started: the single buffered slot fills and the next submit is refused.
	if !p.TrySubmit(1) {
		t.Fatal("first TrySubmit refused")
	}
	if p.TrySubmit(2) {
		t.Error("TrySubmit accepted a job beyond queue capacity")
	}
	p.Start(context.Background(), func(_ context.Context, n int) int { return n })
	p.Close()
	var got []int
	for r := range p.Results() {
		got = append(got, r)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("results = %v, want [1]", got)
	}
}
