package tale

// Store owns the children and story-library collections plus the small
// durable key-value state (onboarding flag, usage counters).
//
// Lookup methods return (nil, nil) when the id does not resolve; mutating
// methods return ErrNotFound instead so callers can message the user.
type Store interface {
	// Child operations

	// CreateChild appends a new child profile. The caller assigns the id.
	CreateChild(c *Child) error

	// UpdateChild replaces the child with the same id.
	UpdateChild(c *Child) error

	// DeleteChild removes a child by id. Stories referencing the child
	// are left in place; they keep the snapshot taken at generation time.
	DeleteChild(id string) error

	// FindChild returns the child with the given id, or (nil, nil).
	FindChild(id string) (*Child, error)

	// ListChildren returns all children, oldest first.
	ListChildren() ([]*Child, error)

	// Story operations

	// SaveStory inserts the story at the head of the library unless an
	// entry with the same id already exists. Returns whether an insert
	// actually occurred, so callers can distinguish "newly saved" from
	// "already saved".
	SaveStory(s *Story) (bool, error)

	// DeleteStory removes a story by id.
	DeleteStory(id string) error

	// FindStory returns the story with the given id, or (nil, nil).
	FindStory(id string) (*Story, error)

	// ListStories returns the library, newest first.
	ListStories() ([]*Story, error)

	// SetFavorite sets the favorite flag on the matching story.
	SetFavorite(id string, favorite bool) error

	// Settings operations

	// GetSetting returns the value stored under key, or "" if unset.
	GetSetting(key string) (string, error)

	// SetSetting stores value under key, replacing any previous value.
	SetSetting(key, value string) error

	// Usage operations

	// LoadUsage returns the persisted usage state, or (nil, nil) if none
	// has been saved yet.
	LoadUsage() (*Usage, error)

	// SaveUsage persists the usage state.
	SaveUsage(u *Usage) error

	// Close releases the underlying resources.
	Close() error
}

// SettingOnboarded is the key under which the "onboarding completed"
// flag is stored. Value "true" means onboarding was finished or skipped.
const SettingOnboarded = "onboarding_completed"
