// Package export writes and reads passphrase-encrypted archives of the
// story library. The archive is a JSON document wrapped in age's
// scrypt-based passphrase encryption, so a family can move their
// stories between devices without an account.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"filippo.io/age"

	"taleloom/internal/tale"
)

// Archive is the serialized form of the domain state worth carrying
// across devices: children, the story library, and usage counters.
type Archive struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exported_at"`
	Children   []*tale.Child `json:"children"`
	Stories    []*tale.Story `json:"stories"`
	Usage      *tale.Usage   `json:"usage,omitempty"`
}

const archiveVersion = 1

// FromStore snapshots the store into an archive.
func FromStore(st tale.Store, clock tale.Clock) (*Archive, error) {
	children, err := st.ListChildren()
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	stories, err := st.ListStories()
	if err != nil {
		return nil, fmt.Errorf("listing stories: %w", err)
	}
	usage, err := st.LoadUsage()
	if err != nil {
		return nil, fmt.Errorf("loading usage: %w", err)
	}
	return &Archive{
		Version:    archiveVersion,
		ExportedAt: clock.Now(),
		Children:   children,
		Stories:    stories,
		Usage:      usage,
	}, nil
}

// Write encrypts the archive with the passphrase and writes it to w.
func Write(w io.Writer, passphrase string, a *Archive) error {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	ew, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if err := json.NewEncoder(ew).Encode(a); err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}

	if err := ew.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// Read decrypts an archive from r using the passphrase.
func Read(r io.Reader, passphrase string) (*Archive, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	dr, err := age.Decrypt(r, identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting archive: %w", err)
	}

	var a Archive
	if err := json.NewDecoder(dr).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding archive: %w", err)
	}
	if a.Version != archiveVersion {
		return nil, fmt.Errorf("unsupported archive version %d", a.Version)
	}
	return &a, nil
}

// Apply merges an archive into the store. The merge is additive and
// idempotent: children already present (by id) are left untouched, and
// story inserts go through the library's idempotent save. Usage is not
// applied; counters belong to the importing device.
// Returns the number of children and stories actually added.
func Apply(st tale.Store, a *Archive) (childrenAdded, storiesAdded int, err error) {
	for _, child := range a.Children {
		existing, err := st.FindChild(child.ID)
		if err != nil {
			return childrenAdded, storiesAdded, fmt.Errorf("finding child: %w", err)
		}
		if existing != nil {
			continue
		}
		if err := st.CreateChild(child); err != nil {
			return childrenAdded, storiesAdded, fmt.Errorf("importing child: %w", err)
		}
		childrenAdded++
	}

	// Walk oldest first so imported stories keep their relative order
	// when inserted at the head of the library.
	for i := len(a.Stories) - 1; i >= 0; i-- {
		inserted, err := st.SaveStory(a.Stories[i])
		if err != nil {
			return childrenAdded, storiesAdded, fmt.Errorf("importing story: %w", err)
		}
		if inserted {
			storiesAdded++
		}
	}
	return childrenAdded, storiesAdded, nil
}
