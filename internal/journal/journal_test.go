package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	perrors "github.com/FocuswithJustin/punctfix/core/errors"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndGet(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)

	r, err := j.Record(ctx, Run{
		Source:       "notes.txt",
		Command:      "fix",
		InputBlake3:  "in",
		OutputBlake3: "out",
		Lines:        10,
		ChangedLines: 4,
		Duration:     3 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if r.ID == "" || r.CreatedAt.IsZero() {
		t.Fatalf("Record did not fill defaults: %+v", r)
	}

	got, err := j.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != r {
		t.Errorf("Get = %+v\nwant  %+v", got, r)
	}
}

func TestRecordRequiresSource(t *testing.T) {
	_, err := openTest(t).Record(context.Background(), Run{})
	if !errors.Is(err, perrors.ErrInvalidInput) {
		t.Errorf("Record(empty) = %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	_, err := openTest(t).Get(context.Background(), "nope")
	if !errors.Is(err, perrors.ErrNotFound) {
		t.Errorf("Get(missing) = %v", err)
	}
}

func TestListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)
	base := time.Unix(1700000000, 0)

	runs := []Run{
		{Source: "a.txt", Command: "fix", ChangedLines: 1, CreatedAt: base},
		{Source: "b.txt", Command: "check", ChangedLines: 0, CreatedAt: base.Add(time.Minute)},
		{Source: "a.txt", Command: "fix", ChangedLines: 0, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range runs {
		if _, err := j.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := j.List(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || !all[0].CreatedAt.After(all[1].CreatedAt) {
		t.Errorf("List not newest first: %+v", all)
	}

	tests := []struct {
		name string
		f    Filter
		want int
	}{
		{"by source", Filter{Source: "a.txt"}, 2},
		{"changed only", Filter{ChangedOnly: true}, 1},
		{"limit", Filter{Limit: 1}, 1},
		{"no match", Filter{Source: "c.txt"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := j.List(ctx, tt.f)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("List(%+v) = %d rows, want %d", tt.f, len(got), tt.want)
			}
		})
	}
}

func TestCountAndPrune(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)
	old := time.Now().Add(-48 * time.Hour)

	j.Record(ctx, Run{Source: "old", CreatedAt: old})
	j.Record(ctx, Run{Source: "new"})

	n, err := j.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v", n, err)
	}
	if c, _ := j.Count(ctx); c != 1 {
		t.Errorf("Count = %d, want 1", c)
	}
}

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	j, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	if _, err := j.Record(ctx, Run{Source: "stdin"}); err != nil {
		t.Fatal(err)
	}
	if c, _ := j.Count(ctx); c != 1 {
		t.Errorf("Count = %d", c)
	}
}
