// Package types holds the conversation data model shared by every other
// package: entries, the archive tree hanging off summary entries, the range
// selection and the persisted conversation layout.
package types

import (
	"github.com/google/uuid"
)

// Role represents who authored an entry
type Role string

const (
	// RoleUser represents an entry written by the user
	RoleUser Role = "user"

	// RoleAssistant represents an entry written by the character/model
	RoleAssistant Role = "assistant"

	// RoleSystem represents a system entry
	RoleSystem Role = "system"
)

// Entry is one conversation turn.
//
// An Entry with a non-empty Archive is a summary entry: Archive holds, in
// original order, the entries it replaced. Archived entries may themselves
// be summaries, so the archive forms a tree. The live sequence owns its
// entries and a summary owns its archive; entries never point back up.
type Entry struct {
	Name    string  `json:"name"`
	Role    Role    `json:"role"`
	Text    string  `json:"text"`
	Archive []Entry `json:"archive,omitempty"`
}

// IsSummary reports whether the entry carries an archive.
func (e *Entry) IsSummary() bool {
	return e != nil && len(e.Archive) > 0
}

// IsUser reports whether the entry was authored by the user.
func (e *Entry) IsUser() bool {
	return e.Role == RoleUser
}

// IsSystem reports whether the entry is a system entry.
func (e *Entry) IsSystem() bool {
	return e.Role == RoleSystem
}

// Depth returns the nesting depth of the archive tree below e.
// A plain entry has depth 0.
func (e *Entry) Depth() int {
	depth := 0
	for i := range e.Archive {
		if d := e.Archive[i].Depth() + 1; d > depth {
			depth = d
		}
	}
	return depth
}

// Clone returns a deep copy of the entry, including its archive tree.
func (e Entry) Clone() Entry {
	out := e
	out.Archive = CloneEntries(e.Archive)
	return out
}

// CloneEntries deep-copies a slice of entries. A nil or empty slice yields nil.
func CloneEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]Entry, len(entries))
	for i := range entries {
		out[i] = entries[i].Clone()
	}
	return out
}

// Conversation is the persisted per-conversation layout: the live entry
// sequence, the pending range selection and the participant names used when
// authoring summary entries.
type Conversation struct {
	ID            uuid.UUID `json:"id"`
	UserName      string    `json:"user_name"`
	CharacterName string    `json:"character_name"`
	Entries       []Entry   `json:"entries"`
	Selection     Selection `json:"selection"`
}
