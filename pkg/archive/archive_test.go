package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2024-04-09", true},
		{"2024-04-09T14:56:12", true},
		{"unknown", false},
		{"09/04/2024", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseTimestamp(tt.input)
			if tt.ok && err != nil {
				t.Errorf("ParseTimestamp(%q) failed: %v", tt.input, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("ParseTimestamp(%q) succeeded, expected an error", tt.input)
			}
		})
	}
}

func TestAge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	writeFile(t, path, "data")

	now := time.Now()
	if err := os.Chtimes(path, now, now.Add(-100*time.Second)); err != nil {
		t.Fatal(err)
	}

	age, err := Age(path, now)
	if err != nil {
		t.Fatalf("Age failed: %v", err)
	}
	if age < 99*time.Second || age > 101*time.Second {
		t.Errorf("Age = %s, expected about 100s", age)
	}
}

func TestNewPlanFromPriorFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2024", "financeexport_2024-01-01_-_2024-02-01.csv"), "old")

	src := filepath.Join(t.TempDir(), "export.csv")
	writeFile(t, src, "new")

	plan, err := NewPlan(Request{
		Source: src,
		Root:   root,
		Now:    time.Now(),
		ToDate: "2024-03-01",
	})
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}

	if plan.FromDate != "2024-02-01" {
		t.Errorf("FromDate = %q, expected %q", plan.FromDate, "2024-02-01")
	}
	want := filepath.Join(root, "2024", "financeexport_2024-02-01_-_2024-03-01.csv")
	if plan.DestPath != want {
		t.Errorf("DestPath = %q, expected %q", plan.DestPath, want)
	}
}

func TestNewPlanPicksLexicographicallyLastFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2024", "financeexport_2023-12-01_-_2024-01-01.csv"), "a")
	writeFile(t, filepath.Join(root, "2024", "financeexport_2024-01-01_-_2024-02-01.csv"), "b")

	plan, err := NewPlan(Request{Source: "unused", Root: root, Now: time.Now(), ToDate: "2024-03-01"})
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}
	if plan.FromDate != "2024-02-01" {
		t.Errorf("FromDate = %q, expected the newest file's to date 2024-02-01", plan.FromDate)
	}
}

func TestNewPlanSameDate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2024", "financeexport_2024-01-01_-_2024-02-01.csv"), "old")

	_, err := NewPlan(Request{Source: "unused", Root: root, Now: time.Now(), ToDate: "2024-02-01"})

	var sameDateErr *SameDateError
	if !errors.As(err, &sameDateErr) {
		t.Fatalf("NewPlan returned %v, expected a SameDateError", err)
	}
}

func TestNewPlanEmptyFolderNeedsExplicitFromDate(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "2024"), 0755); err != nil {
		t.Fatal(err)
	}

	_, err := NewPlan(Request{Source: "unused", Root: root, Now: time.Now(), ToDate: "2024-03-01"})
	if !errors.Is(err, ErrNoPriorExport) {
		t.Fatalf("NewPlan returned %v, expected ErrNoPriorExport", err)
	}

	// An explicit from date bootstraps the first run.
	plan, err := NewPlan(Request{
		Source:   "unused",
		Root:     root,
		Now:      time.Now(),
		ToDate:   "2024-03-01",
		FromDate: "2024-02-01",
	})
	if err != nil {
		t.Fatalf("NewPlan with explicit from date failed: %v", err)
	}
	if plan.FromDate != "2024-02-01" {
		t.Errorf("FromDate = %q, expected %q", plan.FromDate, "2024-02-01")
	}
}

func TestNewPlanConflict(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2024", "financeexport_2024-02-01_-_2024-03-01.csv"), "existing")

	_, err := NewPlan(Request{
		Source:   "unused",
		Root:     root,
		Now:      time.Now(),
		ToDate:   "2024-03-01",
		FromDate: "2024-02-01",
	})

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("NewPlan returned %v, expected a ConflictError", err)
	}
}

func TestNewPlanMissingDestinationFolder(t *testing.T) {
	_, err := NewPlan(Request{Source: "unused", Root: t.TempDir(), Now: time.Now(), ToDate: "2024-03-01"})
	if err == nil {
		t.Error("NewPlan succeeded without the destination year folder")
	}
}

func TestMove(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2024", "financeexport_2024-01-01_-_2024-02-01.csv"), "old")

	src := filepath.Join(t.TempDir(), "export.csv")
	writeFile(t, src, "account data")

	plan, err := NewPlan(Request{Source: src, Root: root, Now: time.Now(), ToDate: "2024-03-01"})
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}

	if err := plan.Move(); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Error("source file still exists after the move")
	}
	moved, err := os.ReadFile(plan.DestPath)
	if err != nil {
		t.Fatalf("read moved file: %v", err)
	}
	if string(moved) != "account data" {
		t.Errorf("moved file content = %q, expected %q", moved, "account data")
	}
}

func TestNewPlanDefaultsToNow(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(root, "2024", "financeexport_2024-01-01_-_2024-02-01.csv"), "old")

	plan, err := NewPlan(Request{Source: "unused", Root: root, Now: now})
	if err != nil {
		t.Fatalf("NewPlan failed: %v", err)
	}
	if plan.ToDate != "2024-06-15" {
		t.Errorf("ToDate = %q, expected %q", plan.ToDate, "2024-06-15")
	}
}
