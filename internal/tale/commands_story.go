package tale

import (
	"context"
	"errors"
	"fmt"
)

// GenerateStory runs the story wizard's generate action: validate the
// request, gate on quota, call the generator, and land on story-result.
// Quota counters are only recorded after the generation fully succeeds,
// so a failed or timed-out generation costs nothing.
func (c *Controller) GenerateStory(ctx context.Context, req StoryRequest) (*Story, error) {
	if err := req.Validate(); err != nil {
		c.notify(SeverityError, "Almost there", err.Error())
		return nil, err
	}

	c.mu.Lock()
	child, err := c.store.FindChild(req.ChildID)
	if err != nil {
		c.mu.Unlock()
		c.notify(SeverityError, "Could not start the story", err.Error())
		return nil, fmt.Errorf("finding child: %w", err)
	}
	if child == nil {
		c.mu.Unlock()
		c.notify(SeverityError, "Pick a child first", "That profile no longer exists.")
		return nil, ErrNotFound
	}

	if err := c.tracker.CanGenerate(); err != nil {
		c.mu.Unlock()
		switch {
		case errors.Is(err, ErrDailyLimit):
			c.notify(SeverityWarning, "Daily limit reached", "Come back tomorrow for another story.")
		case errors.Is(err, ErrMonthlyLimit):
			c.notify(SeverityWarning, "Monthly limit reached", "Upgrade your plan for more stories.")
		}
		return nil, err
	}

	if err := c.beginLocked(categoryGenerate); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	var draft *Story
	err = c.callGateway(ctx, func(ctx context.Context) error {
		var genErr error
		draft, genErr = c.gw.Generator.Generate(ctx, child, req)
		return genErr
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLocked(categoryGenerate)

	if err != nil {
		c.logger.Error("story generation failed", "child_id", child.ID, "error", err)
		if errors.Is(err, ErrTimeout) {
			c.notify(SeverityError, "Story generation timed out", "Please try again.")
		} else {
			c.notify(SeverityError, "Could not generate the story", err.Error())
		}
		return nil, err
	}

	story := *draft
	story.ID = c.idgen.New()
	story.ChildID = child.ID
	story.ChildName = child.Name
	story.ChildAvatar = child.Avatar
	story.CreatedAt = c.clock.Now()
	story.Themes = req.Themes
	story.Tone = req.Tone
	story.Lesson = req.Lesson
	story.Language = req.Language

	c.generated = &story
	c.tracker.RecordGeneration()
	c.persistUsageLocked()
	c.gotoLocked(ScreenStoryResult)
	c.logger.Info("story generated", "story_id", story.ID, "child_id", child.ID)
	c.notify(SeveritySuccess, "Your story is ready!", "")
	return &story, nil
}

// persistUsageLocked writes the usage counters through to the store.
// Failure is logged but does not fail the command: the in-memory
// tracker remains authoritative for this process.
func (c *Controller) persistUsageLocked() {
	usage := c.tracker.Usage()
	if err := c.store.SaveUsage(&usage); err != nil {
		c.logger.Warn("persisting usage failed", "error", err)
	}
}

// SaveStory commits the current generation result to the library. The
// save is idempotent: a second call for the same story reports "already
// saved" instead of duplicating the entry.
func (c *Controller) SaveStory() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generated == nil {
		c.notify(SeverityError, "Nothing to save", "Generate a story first.")
		return ErrNotFound
	}

	inserted, err := c.store.SaveStory(c.generated)
	if err != nil {
		c.notify(SeverityError, "Could not save the story", err.Error())
		return fmt.Errorf("saving story: %w", err)
	}
	if inserted {
		c.notify(SeveritySuccess, "Story saved to your library", "")
	} else {
		c.notify(SeverityInfo, "Already saved", "This story is in your library.")
	}
	return nil
}

// ReadStory opens the current generation result in the reader. The
// story is persisted silently on the way so the reader never shows an
// unsaved story.
func (c *Controller) ReadStory() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generated == nil {
		c.gotoLocked(ScreenHome)
		return ErrNotFound
	}

	if _, err := c.store.SaveStory(c.generated); err != nil {
		c.notify(SeverityError, "Could not open the story", err.Error())
		return fmt.Errorf("saving story: %w", err)
	}

	c.activeStoryID = c.generated.ID
	c.gotoLocked(ScreenStoryReader)
	return nil
}

// OpenStory opens a library story in the reader.
func (c *Controller) OpenStory(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	story, err := c.store.FindStory(id)
	if err != nil {
		c.notify(SeverityError, "Could not open the story", err.Error())
		return fmt.Errorf("finding story: %w", err)
	}
	if story == nil {
		c.gotoLocked(ScreenLibrary)
		c.notify(SeverityError, "That story no longer exists", "")
		return ErrNotFound
	}

	c.activeStoryID = id
	c.gotoLocked(ScreenStoryReader)
	return nil
}

// DeleteStory removes a story from the library. Deleting the story that
// is open in the reader clears the active pointer and returns home in
// the same operation; there is no intermediate state where the reader
// points at a missing story.
func (c *Controller) DeleteStory(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	story, err := c.store.FindStory(id)
	if err != nil {
		c.notify(SeverityError, "Could not delete the story", err.Error())
		return fmt.Errorf("finding story: %w", err)
	}
	if story == nil {
		c.notify(SeverityError, "That story no longer exists", "")
		return ErrNotFound
	}

	if err := c.store.DeleteStory(id); err != nil {
		c.notify(SeverityError, "Could not delete the story", err.Error())
		return fmt.Errorf("deleting story: %w", err)
	}

	if c.generated != nil && c.generated.ID == id {
		c.generated = nil
	}
	if c.activeStoryID == id {
		c.activeStoryID = ""
		c.gotoLocked(ScreenHome)
	}
	c.logger.Info("story deleted", "story_id", id)
	c.notify(SeveritySuccess, "Story deleted", "")
	return nil
}

// ToggleFavorite flips the favorite flag on a library story. A missing
// story is a silent no-op, matching the optimistic toggle in the UI.
func (c *Controller) ToggleFavorite(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	story, err := c.store.FindStory(id)
	if err != nil {
		return fmt.Errorf("finding story: %w", err)
	}
	if story == nil {
		return nil
	}
	if err := c.store.SetFavorite(id, !story.IsFavorite); err != nil {
		return fmt.Errorf("setting favorite: %w", err)
	}
	return nil
}

// ShareStory is side-effect only: it mutates no state and just reports
// the outcome a share sheet would produce.
func (c *Controller) ShareStory(id string) error {
	c.mu.Lock()
	story, err := c.store.FindStory(id)
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("finding story: %w", err)
	}
	if story == nil {
		c.notify(SeverityError, "That story no longer exists", "")
		return ErrNotFound
	}
	c.notify(SeverityInfo, "Share link copied", story.Title)
	return nil
}
