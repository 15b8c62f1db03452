package export

import (
	"bytes"
	"testing"
	"time"

	"taleloom/internal/store"
	"taleloom/internal/tale"
	"taleloom/internal/testutil"
)

func seedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	if err := s.CreateChild(&tale.Child{ID: "c1", Name: "Emma", Age: 6}); err != nil {
		t.Fatal(err)
	}
	// Oldest first: s1 saved before s2, so the library head is s2.
	for _, id := range []string{"s1", "s2"} {
		if _, err := s.SaveStory(&tale.Story{ID: id, Title: "Story " + id, ChildID: "c1", Content: "..."}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveUsage(&tale.Usage{PlanID: "free", UsedToday: 1, UsedThisMonth: 5, DaySignature: "2024-01-15"}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExportRoundTrip(t *testing.T) {
	src := seedStore(t)
	clock := testutil.FixedClock()

	archive, err := FromStore(src, clock)
	if err != nil {
		t.Fatalf("FromStore: %v", err)
	}
	if !archive.ExportedAt.Equal(clock.Now()) {
		t.Errorf("ExportedAt = %v", archive.ExportedAt)
	}

	var buf bytes.Buffer
	if err := Write(&buf, "correct horse", archive); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf, "correct horse")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Children) != 1 || len(got.Stories) != 2 {
		t.Fatalf("archive = %d children, %d stories", len(got.Children), len(got.Stories))
	}
	if got.Stories[0].ID != "s2" {
		t.Errorf("archive head = %q, want s2", got.Stories[0].ID)
	}
	if got.Usage == nil || got.Usage.UsedThisMonth != 5 {
		t.Errorf("usage = %+v", got.Usage)
	}
}

func TestReadWrongPassphrase(t *testing.T) {
	src := seedStore(t)
	archive, err := FromStore(src, testutil.FixedClock())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, "correct horse", archive); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(&buf, "battery staple"); err == nil {
		t.Error("Read succeeded with the wrong passphrase")
	}
}

func TestApply(t *testing.T) {
	src := seedStore(t)
	archive, err := FromStore(src, testutil.FixedClock())
	if err != nil {
		t.Fatal(err)
	}

	dst := store.NewMemoryStore()
	if err := dst.SaveUsage(&tale.Usage{PlanID: "premium", DaySignature: "2024-02-01"}); err != nil {
		t.Fatal(err)
	}

	children, stories, err := Apply(dst, archive)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if children != 1 || stories != 2 {
		t.Errorf("added %d children, %d stories; want 1, 2", children, stories)
	}

	// Library order matches the source: newest first.
	got, err := dst.ListStories()
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "s2" || got[1].ID != "s1" {
		t.Errorf("imported order = %q, %q", got[0].ID, got[1].ID)
	}

	// The importing device keeps its own counters.
	usage, err := dst.LoadUsage()
	if err != nil {
		t.Fatal(err)
	}
	if usage.PlanID != "premium" {
		t.Errorf("usage overwritten by import: %+v", usage)
	}

	// A second apply is a no-op.
	children, stories, err = Apply(dst, archive)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if children != 0 || stories != 0 {
		t.Errorf("second apply added %d children, %d stories", children, stories)
	}
}

func TestApplyMergesIntoExistingLibrary(t *testing.T) {
	src := seedStore(t)
	archive, err := FromStore(src, testutil.FixedClock())
	if err != nil {
		t.Fatal(err)
	}

	dst := store.NewMemoryStore()
	if err := dst.CreateChild(&tale.Child{ID: "c1", Name: "Renamed", Age: 7}); err != nil {
		t.Fatal(err)
	}
	if _, err := dst.SaveStory(&tale.Story{ID: "local", Title: "Local", Content: "..."}); err != nil {
		t.Fatal(err)
	}

	children, stories, err := Apply(dst, archive)
	if err != nil {
		t.Fatal(err)
	}
	if children != 0 {
		t.Errorf("existing child was re-imported")
	}
	if stories != 2 {
		t.Errorf("stories added = %d, want 2", stories)
	}

	// Existing profiles win over archived ones.
	child, err := dst.FindChild("c1")
	if err != nil {
		t.Fatal(err)
	}
	if child.Name != "Renamed" {
		t.Errorf("import clobbered the local profile: %+v", child)
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	archive := &Archive{Version: 99, ExportedAt: time.Now()}
	var buf bytes.Buffer
	if err := Write(&buf, "pw", archive); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(&buf, "pw"); err == nil {
		t.Error("Read accepted an unknown archive version")
	}
}
