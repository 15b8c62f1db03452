package tale

import "time"

// Story is a generated bedtime story. The child's name and avatar are
// snapshotted at generation time so the story stays self-contained even
// if the child profile is later edited or deleted.
//
// A story is first held as the controller's transient generation result
// and only enters the library once a save command succeeds.
type Story struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	ChildID       string    `json:"child_id"`
	ChildName     string    `json:"child_name"`
	ChildAvatar   string    `json:"child_avatar"`
	CreatedAt     time.Time `json:"created_at"`
	DurationLabel string    `json:"duration_label"`
	Lesson        string    `json:"lesson"`
	Tone          string    `json:"tone"`
	Language      string    `json:"language"`
	Themes        []string  `json:"themes"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt"`
	IsFavorite    bool      `json:"is_favorite"`
}

// StoryRequest is the payload for the generate-story command.
type StoryRequest struct {
	ChildID       string   `json:"child_id"`
	Themes        []string `json:"themes"`
	Tone          string   `json:"tone"`
	Lesson        string   `json:"lesson"`
	Language      string   `json:"language"`
	DurationLabel string   `json:"duration_label"`
}

// Validate checks the request before any quota or store access.
func (r StoryRequest) Validate() error {
	if r.ChildID == "" {
		return &ValidationError{Field: "child_id", Reason: "must not be empty"}
	}
	if len(r.Themes) == 0 {
		return &ValidationError{Field: "themes", Reason: "pick at least one theme"}
	}
	return nil
}
