package tale

import "fmt"

// SelectChild marks a child for editing and opens the edit screen. A
// stale id redirects to the children list instead.
func (c *Controller) SelectChild(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	child, err := c.store.FindChild(id)
	if err != nil {
		c.notify(SeverityError, "Could not load that profile", err.Error())
		return fmt.Errorf("finding child: %w", err)
	}
	if child == nil {
		c.selectedChildID = ""
		c.gotoLocked(ScreenChildren)
		c.notify(SeverityError, "That profile no longer exists", "")
		return ErrNotFound
	}

	c.selectedChildID = id
	c.gotoLocked(ScreenChildEdit)
	return nil
}

// AddChild creates a new child profile and returns it.
func (c *Controller) AddChild(in ChildInput) (*Child, error) {
	if err := in.Validate(); err != nil {
		c.notify(SeverityError, "Check the profile details", err.Error())
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	child := &Child{
		ID:          c.idgen.New(),
		Name:        in.Name,
		Age:         in.Age,
		Interests:   in.Interests,
		Avatar:      in.Avatar,
		AvatarColor: in.AvatarColor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.CreateChild(child); err != nil {
		c.notify(SeverityError, "Could not add the profile", err.Error())
		return nil, fmt.Errorf("creating child: %w", err)
	}

	c.gotoLocked(ScreenChildren)
	c.logger.Info("child added", "child_id", child.ID)
	c.notify(SeveritySuccess, child.Name+" added", "")
	return child, nil
}

// UpdateChild replaces the profile of the currently selected child.
func (c *Controller) UpdateChild(in ChildInput) error {
	if err := in.Validate(); err != nil {
		c.notify(SeverityError, "Check the profile details", err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectedChildID == "" {
		c.gotoLocked(ScreenChildren)
		return ErrNotFound
	}
	existing, err := c.store.FindChild(c.selectedChildID)
	if err != nil {
		c.notify(SeverityError, "Could not update the profile", err.Error())
		return fmt.Errorf("finding child: %w", err)
	}
	if existing == nil {
		c.selectedChildID = ""
		c.gotoLocked(ScreenChildren)
		c.notify(SeverityError, "That profile no longer exists", "")
		return ErrNotFound
	}

	updated := *existing
	updated.Name = in.Name
	updated.Age = in.Age
	updated.Interests = in.Interests
	updated.Avatar = in.Avatar
	updated.AvatarColor = in.AvatarColor
	updated.UpdatedAt = c.clock.Now()

	if err := c.store.UpdateChild(&updated); err != nil {
		c.notify(SeverityError, "Could not update the profile", err.Error())
		return fmt.Errorf("updating child: %w", err)
	}

	c.selectedChildID = ""
	c.gotoLocked(ScreenChildren)
	c.notify(SeveritySuccess, updated.Name+" updated", "")
	return nil
}

// DeleteChild removes a child profile. Stories generated for the child
// are kept; they carry their own name/avatar snapshot.
func (c *Controller) DeleteChild(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	child, err := c.store.FindChild(id)
	if err != nil {
		c.notify(SeverityError, "Could not remove the profile", err.Error())
		return fmt.Errorf("finding child: %w", err)
	}
	if child == nil {
		c.notify(SeverityError, "That profile no longer exists", "")
		return ErrNotFound
	}

	if err := c.store.DeleteChild(id); err != nil {
		c.notify(SeverityError, "Could not remove the profile", err.Error())
		return fmt.Errorf("deleting child: %w", err)
	}

	if c.selectedChildID == id {
		c.selectedChildID = ""
	}
	c.gotoLocked(ScreenChildren)
	c.logger.Info("child deleted", "child_id", id)
	c.notify(SeveritySuccess, child.Name+" removed", "Their saved stories stay in the library.")
	return nil
}
