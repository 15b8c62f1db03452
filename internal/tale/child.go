package tale

import (
	"strings"
	"time"
)

// Age bounds accepted for a child profile.
const (
	MinChildAge = 1
	MaxChildAge = 18
)

// Child is a child profile owned by the store.
type Child struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	Interests   []string  `json:"interests"`
	Avatar      string    `json:"avatar"`
	AvatarColor string    `json:"avatar_color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChildInput is the payload for the add/update child commands.
type ChildInput struct {
	Name        string   `json:"name"`
	Age         int      `json:"age"`
	Interests   []string `json:"interests"`
	Avatar      string   `json:"avatar"`
	AvatarColor string   `json:"avatar_color"`
}

// Validate checks the input against the profile constraints.
func (in ChildInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if in.Age < MinChildAge || in.Age > MaxChildAge {
		return &ValidationError{Field: "age", Reason: "must be between 1 and 18"}
	}
	return nil
}
