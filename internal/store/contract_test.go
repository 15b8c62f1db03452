package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"taleloom/internal/tale"
)

// runStoreContract exercises the tale.Store behavior every backend must
// share. Both implementations run the same suite.
func runStoreContract(t *testing.T, newStore func(t *testing.T) tale.Store) {
	baseTime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	newChild := func(id, name string) *tale.Child {
		return &tale.Child{
			ID:          id,
			Name:        name,
			Age:         6,
			Interests:   []string{"space", "dinosaurs"},
			Avatar:      "rocket",
			AvatarColor: "#3366ff",
			CreatedAt:   baseTime,
			UpdatedAt:   baseTime,
		}
	}
	newStory := func(id, title string) *tale.Story {
		return &tale.Story{
			ID:            id,
			Title:         title,
			ChildID:       "c1",
			ChildName:     "Emma",
			ChildAvatar:   "rocket",
			CreatedAt:     baseTime,
			DurationLabel: "5 min",
			Lesson:        "kindness",
			Tone:          "calm",
			Language:      "en",
			Themes:        []string{"Space"},
			Content:       "Once upon a time...",
			Excerpt:       "Once upon a time",
		}
	}

	t.Run("children round trip", func(t *testing.T) {
		s := newStore(t)

		want := newChild("c1", "Emma")
		if err := s.CreateChild(want); err != nil {
			t.Fatalf("CreateChild: %v", err)
		}

		got, err := s.FindChild("c1")
		if err != nil {
			t.Fatalf("FindChild: %v", err)
		}
		if got == nil {
			t.Fatal("FindChild returned nil for existing child")
		}
		if got.Name != want.Name || got.Age != want.Age || got.AvatarColor != want.AvatarColor {
			t.Errorf("got %+v, want %+v", got, want)
		}
		if len(got.Interests) != 2 || got.Interests[0] != "space" {
			t.Errorf("Interests = %v", got.Interests)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
		}
	})

	t.Run("missing child lookup is nil, nil", func(t *testing.T) {
		s := newStore(t)
		got, err := s.FindChild("ghost")
		if err != nil || got != nil {
			t.Fatalf("FindChild(missing) = %v, %v; want nil, nil", got, err)
		}
	})

	t.Run("children list oldest first", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 3; i++ {
			if err := s.CreateChild(newChild(fmt.Sprintf("c%d", i), fmt.Sprintf("Child %d", i))); err != nil {
				t.Fatal(err)
			}
		}
		children, err := s.ListChildren()
		if err != nil {
			t.Fatalf("ListChildren: %v", err)
		}
		if len(children) != 3 {
			t.Fatalf("len = %d, want 3", len(children))
		}
		for i, c := range children {
			if want := fmt.Sprintf("c%d", i+1); c.ID != want {
				t.Errorf("children[%d].ID = %q, want %q", i, c.ID, want)
			}
		}
	})

	t.Run("update child", func(t *testing.T) {
		s := newStore(t)
		if err := s.CreateChild(newChild("c1", "Emma")); err != nil {
			t.Fatal(err)
		}

		updated := newChild("c1", "Emma Rose")
		updated.Age = 7
		updated.Interests = []string{"ocean"}
		updated.UpdatedAt = baseTime.Add(time.Hour)
		if err := s.UpdateChild(updated); err != nil {
			t.Fatalf("UpdateChild: %v", err)
		}

		got, _ := s.FindChild("c1")
		if got.Name != "Emma Rose" || got.Age != 7 {
			t.Errorf("got %+v", got)
		}
		if len(got.Interests) != 1 || got.Interests[0] != "ocean" {
			t.Errorf("Interests = %v", got.Interests)
		}

		if err := s.UpdateChild(newChild("ghost", "X")); !errors.Is(err, tale.ErrNotFound) {
			t.Errorf("UpdateChild(missing) = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete child leaves stories", func(t *testing.T) {
		s := newStore(t)
		if err := s.CreateChild(newChild("c1", "Emma")); err != nil {
			t.Fatal(err)
		}
		if _, err := s.SaveStory(newStory("s1", "The Space Adventure")); err != nil {
			t.Fatal(err)
		}

		if err := s.DeleteChild("c1"); err != nil {
			t.Fatalf("DeleteChild: %v", err)
		}
		if err := s.DeleteChild("c1"); !errors.Is(err, tale.ErrNotFound) {
			t.Errorf("second DeleteChild = %v, want ErrNotFound", err)
		}

		story, err := s.FindStory("s1")
		if err != nil {
			t.Fatal(err)
		}
		if story == nil {
			t.Fatal("story was removed with its child")
		}
		if story.ChildName != "Emma" {
			t.Errorf("snapshot name = %q", story.ChildName)
		}
	})

	t.Run("story save is idempotent", func(t *testing.T) {
		s := newStore(t)

		inserted, err := s.SaveStory(newStory("s1", "First"))
		if err != nil {
			t.Fatalf("SaveStory: %v", err)
		}
		if !inserted {
			t.Error("first save reported no insert")
		}

		inserted, err = s.SaveStory(newStory("s1", "Duplicate"))
		if err != nil {
			t.Fatalf("second SaveStory: %v", err)
		}
		if inserted {
			t.Error("duplicate save reported an insert")
		}

		stories, err := s.ListStories()
		if err != nil {
			t.Fatal(err)
		}
		if len(stories) != 1 {
			t.Fatalf("len = %d, want 1", len(stories))
		}
		if stories[0].Title != "First" {
			t.Errorf("duplicate save replaced the entry: %q", stories[0].Title)
		}
	})

	t.Run("stories list newest first", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 3; i++ {
			if _, err := s.SaveStory(newStory(fmt.Sprintf("s%d", i), fmt.Sprintf("Story %d", i))); err != nil {
				t.Fatal(err)
			}
		}
		stories, err := s.ListStories()
		if err != nil {
			t.Fatal(err)
		}
		if len(stories) != 3 {
			t.Fatalf("len = %d, want 3", len(stories))
		}
		for i, want := range []string{"s3", "s2", "s1"} {
			if stories[i].ID != want {
				t.Errorf("stories[%d].ID = %q, want %q", i, stories[i].ID, want)
			}
		}
	})

	t.Run("head order survives deletion", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 3; i++ {
			if _, err := s.SaveStory(newStory(fmt.Sprintf("s%d", i), "")); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.DeleteStory("s2"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.SaveStory(newStory("s4", "")); err != nil {
			t.Fatal(err)
		}

		stories, _ := s.ListStories()
		var ids []string
		for _, st := range stories {
			ids = append(ids, st.ID)
		}
		want := []string{"s4", "s3", "s1"}
		for i := range want {
			if ids[i] != want[i] {
				t.Fatalf("order = %v, want %v", ids, want)
			}
		}
	})

	t.Run("story fields round trip", func(t *testing.T) {
		s := newStore(t)
		want := newStory("s1", "The Space Adventure")
		want.IsFavorite = true
		want.Themes = []string{"Space", "Friendship"}
		if _, err := s.SaveStory(want); err != nil {
			t.Fatal(err)
		}

		got, err := s.FindStory("s1")
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != want.Title || got.Content != want.Content || got.Excerpt != want.Excerpt {
			t.Errorf("got %+v", got)
		}
		if got.Lesson != "kindness" || got.Tone != "calm" || got.Language != "en" {
			t.Errorf("metadata lost: %+v", got)
		}
		if len(got.Themes) != 2 || got.Themes[1] != "Friendship" {
			t.Errorf("Themes = %v", got.Themes)
		}
		if !got.IsFavorite {
			t.Error("IsFavorite = false")
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
		}
	})

	t.Run("set favorite", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.SaveStory(newStory("s1", "")); err != nil {
			t.Fatal(err)
		}

		if err := s.SetFavorite("s1", true); err != nil {
			t.Fatalf("SetFavorite: %v", err)
		}
		got, _ := s.FindStory("s1")
		if !got.IsFavorite {
			t.Error("IsFavorite = false after SetFavorite(true)")
		}

		if err := s.SetFavorite("ghost", true); !errors.Is(err, tale.ErrNotFound) {
			t.Errorf("SetFavorite(missing) = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete missing story", func(t *testing.T) {
		s := newStore(t)
		if err := s.DeleteStory("ghost"); !errors.Is(err, tale.ErrNotFound) {
			t.Errorf("DeleteStory(missing) = %v, want ErrNotFound", err)
		}
	})

	t.Run("settings", func(t *testing.T) {
		s := newStore(t)

		got, err := s.GetSetting("onboarding_completed")
		if err != nil {
			t.Fatalf("GetSetting: %v", err)
		}
		if got != "" {
			t.Errorf("unset setting = %q, want empty", got)
		}

		if err := s.SetSetting("onboarding_completed", "true"); err != nil {
			t.Fatalf("SetSetting: %v", err)
		}
		if err := s.SetSetting("onboarding_completed", "false"); err != nil {
			t.Fatalf("SetSetting overwrite: %v", err)
		}
		got, _ = s.GetSetting("onboarding_completed")
		if got != "false" {
			t.Errorf("setting = %q, want %q", got, "false")
		}
	})

	t.Run("usage", func(t *testing.T) {
		s := newStore(t)

		got, err := s.LoadUsage()
		if err != nil {
			t.Fatalf("LoadUsage: %v", err)
		}
		if got != nil {
			t.Errorf("fresh usage = %+v, want nil", got)
		}

		want := &tale.Usage{PlanID: "premium", UsedThisMonth: 12, UsedToday: 2, DaySignature: "2024-01-15"}
		if err := s.SaveUsage(want); err != nil {
			t.Fatalf("SaveUsage: %v", err)
		}

		// Upsert: second save replaces, never duplicates.
		want.UsedToday = 3
		if err := s.SaveUsage(want); err != nil {
			t.Fatalf("second SaveUsage: %v", err)
		}

		got, err = s.LoadUsage()
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || *got != *want {
			t.Errorf("LoadUsage = %+v, want %+v", got, want)
		}
	})
}
