package tale

// StoryView decorates a library story with derived presentation facts.
type StoryView struct {
	*Story
	// DanglingChild is true when the referenced child no longer exists.
	// The story stays readable through its name/avatar snapshot.
	DanglingChild bool `json:"dangling_child"`
}

// Snapshot is the complete state the presentation layer renders from.
// It is a copy; mutating it has no effect on the controller.
type Snapshot struct {
	Screen          Screen       `json:"screen"`
	InitError       string       `json:"init_error,omitempty"`
	SignedIn        bool         `json:"signed_in"`
	SessionToken    string       `json:"session_token,omitempty"`
	SelectedChildID string       `json:"selected_child_id,omitempty"`
	SelectedPlanID  string       `json:"selected_plan_id,omitempty"`
	ActiveStoryID   string       `json:"active_story_id,omitempty"`
	GeneratedStory  *Story       `json:"generated_story,omitempty"`
	Children        []*Child     `json:"children"`
	Stories         []*StoryView `json:"stories"`
	Usage           Usage        `json:"usage"`
	Plan            Plan         `json:"plan"`
	Plans           []Plan       `json:"plans"`
}

// Snapshot assembles the current state. Guard redirects are applied
// first, so the returned screen never requires missing selection state.
func (c *Controller) Snapshot() (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolveLocked()

	children, err := c.store.ListChildren()
	if err != nil {
		return nil, err
	}
	stories, err := c.store.ListStories()
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(children))
	for _, ch := range children {
		known[ch.ID] = true
	}
	views := make([]*StoryView, len(stories))
	for i, s := range stories {
		views[i] = &StoryView{Story: s, DanglingChild: !known[s.ChildID]}
	}

	return &Snapshot{
		Screen:          c.screen,
		InitError:       c.initError,
		SignedIn:        c.signedIn,
		SessionToken:    c.sessionToken,
		SelectedChildID: c.selectedChildID,
		SelectedPlanID:  c.selectedPlanID,
		ActiveStoryID:   c.activeStoryID,
		GeneratedStory:  c.generated,
		Children:        children,
		Stories:         views,
		Usage:           c.tracker.Usage(),
		Plan:            c.tracker.Plan(),
		Plans:           c.catalog.All(),
	}, nil
}
