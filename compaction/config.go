package compaction

import (
	"fmt"
)

// AuthorMode selects who is named as the author of new summary entries.
type AuthorMode string

const (
	// AuthorUser attributes summaries to the conversation's user.
	AuthorUser AuthorMode = "user"

	// AuthorCharacter attributes summaries to the conversation's character.
	AuthorCharacter AuthorMode = "character"

	// AuthorCustom attributes summaries to Settings.SummaryName.
	AuthorCustom AuthorMode = "custom"
)

// NoProfile is the profile name meaning "no profile override selected".
const NoProfile = "<None>"

// Default settings values.
const (
	DefaultHistoryDepth       = -1 // unlimited lookback
	DefaultHistoryStartMarker = "<Historical_Context>"
	DefaultHistoryEndMarker   = "</Historical_Context>"
	DefaultSummaryStartMarker = "<Content_To_Summarise>"
	DefaultSummaryEndMarker   = "</Content_To_Summarise>"
	DefaultMaxResponseTokens  = 0 // use the backend's reserved response size
	DefaultAuthorMode         = AuthorCustom
	DefaultSummaryName        = "Summary"
	DefaultAutoScroll         = true
)

// Settings is the user-editable record that drives prompt assembly and the
// summarization protocol.
type Settings struct {
	// LeadInstruction opens the prompt.
	// Default: DefaultLeadInstruction
	LeadInstruction string

	// MidInstruction sits between the history block and the content block.
	MidInstruction string

	// TrailingInstruction closes the prompt.
	TrailingInstruction string

	// SummaryStartMarker and SummaryEndMarker wrap the content to summarize.
	SummaryStartMarker string
	SummaryEndMarker   string

	// HistoryStartMarker and HistoryEndMarker wrap the lookback history.
	HistoryStartMarker string
	HistoryEndMarker   string

	// MaxResponseTokenOverride reserves this many tokens for the response
	// instead of the backend default. 0 uses the backend default.
	MaxResponseTokenOverride int

	// HistoryDepth is how many entries before the range are considered for
	// history. -1 means unlimited.
	HistoryDepth int

	// UseProfileOverride switches the generation profile to ProfileName
	// while a summary is generated.
	UseProfileOverride bool
	ProfileName        string

	// UsePresetOverride switches the generation preset to PresetName
	// while a summary is generated.
	UsePresetOverride bool
	PresetName        string

	// AutoScroll requests that the view scroll to the affected entry.
	AutoScroll bool

	// SummaryAuthorMode picks the author of new summary entries.
	// SummaryName is used in AuthorCustom mode.
	SummaryAuthorMode AuthorMode
	SummaryName       string
}

// DefaultSettings returns Settings with every field at its default.
func DefaultSettings() *Settings {
	return &Settings{
		LeadInstruction:    DefaultLeadInstruction,
		SummaryStartMarker: DefaultSummaryStartMarker,
		SummaryEndMarker:   DefaultSummaryEndMarker,
		HistoryStartMarker: DefaultHistoryStartMarker,
		HistoryEndMarker:   DefaultHistoryEndMarker,
		HistoryDepth:       DefaultHistoryDepth,
		ProfileName:        NoProfile,
		AutoScroll:         DefaultAutoScroll,
		SummaryAuthorMode:  DefaultAuthorMode,
		SummaryName:        DefaultSummaryName,
	}
}

// Validate validates the settings and returns an error if invalid.
func (s *Settings) Validate() error {
	if s.MaxResponseTokenOverride < 0 {
		return fmt.Errorf("%w: max_response_token_override must be non-negative, got %d",
			ErrInvalidConfig, s.MaxResponseTokenOverride)
	}

	if s.HistoryDepth < -1 {
		return fmt.Errorf("%w: history_depth must be -1 (unlimited) or non-negative, got %d",
			ErrInvalidConfig, s.HistoryDepth)
	}

	switch s.SummaryAuthorMode {
	case AuthorUser, AuthorCharacter, AuthorCustom:
	default:
		return fmt.Errorf("%w: unknown summary author mode %q, must be %q, %q or %q",
			ErrInvalidConfig, s.SummaryAuthorMode, AuthorUser, AuthorCharacter, AuthorCustom)
	}

	return nil
}

// ApplyDefaults fills in empty markers, author mode and summary name.
// Numeric fields are left alone because their zero values are meaningful.
func (s *Settings) ApplyDefaults() {
	if s.SummaryStartMarker == "" {
		s.SummaryStartMarker = DefaultSummaryStartMarker
	}
	if s.SummaryEndMarker == "" {
		s.SummaryEndMarker = DefaultSummaryEndMarker
	}
	if s.HistoryStartMarker == "" {
		s.HistoryStartMarker = DefaultHistoryStartMarker
	}
	if s.HistoryEndMarker == "" {
		s.HistoryEndMarker = DefaultHistoryEndMarker
	}
	if s.SummaryAuthorMode == "" {
		s.SummaryAuthorMode = DefaultAuthorMode
	}
	if s.SummaryName == "" {
		s.SummaryName = DefaultSummaryName
	}
}

// ProfileOverride returns the profile to switch to, if any.
func (s *Settings) ProfileOverride() (string, bool) {
	if !s.UseProfileOverride || s.ProfileName == "" || s.ProfileName == NoProfile {
		return "", false
	}
	return s.ProfileName, true
}

// PresetOverride returns the preset to switch to, if any.
func (s *Settings) PresetOverride() (string, bool) {
	if !s.UsePresetOverride || s.PresetName == "" {
		return "", false
	}
	return s.PresetName, true
}

// Clone returns a copy of the settings.
func (s *Settings) Clone() *Settings {
	out := *s
	return &out
}
