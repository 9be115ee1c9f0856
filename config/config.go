// Package config loads inlinesummary settings from a file and the environment.
//
// Files may be JSON, YAML or TOML. Every key can be overridden by an
// environment variable named INLINESUMMARY_<SECTION>_<KEY>, for example
// INLINESUMMARY_SETTINGS_HISTORY_DEPTH=10.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/youssefsiam38/inlinesummary/backend"
	"github.com/youssefsiam38/inlinesummary/compaction"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INLINESUMMARY"

// ProviderKind selects the text generation provider.
type ProviderKind string

const (
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderOpenAI    ProviderKind = "openai"
)

// DriverKind selects the database driver.
type DriverKind string

const (
	DriverPgx         DriverKind = "pgx"
	DriverDatabaseSQL DriverKind = "databasesql"
)

// ErrInvalid is returned when a loaded value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Provider configures the generator and token counter.
type Provider struct {
	Kind      ProviderKind
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int

	// CountTokensAPI counts prompt tokens with the provider's API when it has one.
	CountTokensAPI bool
}

// Database configures persistence. An empty URL keeps conversations in memory.
type Database struct {
	URL    string
	Driver DriverKind

	// EventRetention prunes operation history older than this. Zero keeps it forever.
	EventRetention time.Duration
}

// Config is everything Load reads.
type Config struct {
	Settings *compaction.Settings
	Backend  backend.Info
	Provider Provider
	Database Database
}

// Load reads path, or searches ./inlinesummary.* and ~/.inlinesummary/
// when path is empty. A missing searched file leaves the defaults in place;
// a missing explicit file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("inlinesummary")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".inlinesummary"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	d := compaction.DefaultSettings()

	v.SetDefault("settings.lead_instruction", d.LeadInstruction)
	v.SetDefault("settings.mid_instruction", d.MidInstruction)
	v.SetDefault("settings.trailing_instruction", d.TrailingInstruction)
	v.SetDefault("settings.summary_start_marker", d.SummaryStartMarker)
	v.SetDefault("settings.summary_end_marker", d.SummaryEndMarker)
	v.SetDefault("settings.history_start_marker", d.HistoryStartMarker)
	v.SetDefault("settings.history_end_marker", d.HistoryEndMarker)
	v.SetDefault("settings.max_response_tokens", d.MaxResponseTokenOverride)
	v.SetDefault("settings.history_depth", d.HistoryDepth)
	v.SetDefault("settings.use_profile_override", d.UseProfileOverride)
	v.SetDefault("settings.profile_name", d.ProfileName)
	v.SetDefault("settings.use_preset_override", d.UsePresetOverride)
	v.SetDefault("settings.preset_name", d.PresetName)
	v.SetDefault("settings.auto_scroll", d.AutoScroll)
	v.SetDefault("settings.summary_author_mode", string(d.SummaryAuthorMode))
	v.SetDefault("settings.summary_name", d.SummaryName)

	v.SetDefault("backend.mode", string(backend.ModeOpenAI))
	v.SetDefault("backend.max_context", 4096)
	v.SetDefault("backend.max_response", 512)
	v.SetDefault("backend.chat_max_context", 4096)
	v.SetDefault("backend.chat_max_tokens", 512)
	v.SetDefault("backend.anthropic_model", "")

	v.SetDefault("provider.kind", string(ProviderOpenAI))
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.max_tokens", 0)
	v.SetDefault("provider.count_tokens_api", false)

	v.SetDefault("database.url", "")
	v.SetDefault("database.driver", string(DriverPgx))
	v.SetDefault("database.event_retention", time.Duration(0))
}

func fromViper(v *viper.Viper) (*Config, error) {
	s := &compaction.Settings{
		LeadInstruction:          v.GetString("settings.lead_instruction"),
		MidInstruction:           v.GetString("settings.mid_instruction"),
		TrailingInstruction:      v.GetString("settings.trailing_instruction"),
		SummaryStartMarker:       v.GetString("settings.summary_start_marker"),
		SummaryEndMarker:         v.GetString("settings.summary_end_marker"),
		HistoryStartMarker:       v.GetString("settings.history_start_marker"),
		HistoryEndMarker:         v.GetString("settings.history_end_marker"),
		MaxResponseTokenOverride: v.GetInt("settings.max_response_tokens"),
		HistoryDepth:             v.GetInt("settings.history_depth"),
		UseProfileOverride:       v.GetBool("settings.use_profile_override"),
		ProfileName:              v.GetString("settings.profile_name"),
		UsePresetOverride:        v.GetBool("settings.use_preset_override"),
		PresetName:               v.GetString("settings.preset_name"),
		AutoScroll:               v.GetBool("settings.auto_scroll"),
		SummaryAuthorMode:        compaction.AuthorMode(strings.ToLower(v.GetString("settings.summary_author_mode"))),
		SummaryName:              v.GetString("settings.summary_name"),
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Settings: s,
		Backend: backend.Info{
			Mode:           backend.Mode(v.GetString("backend.mode")),
			MaxContext:     v.GetInt("backend.max_context"),
			MaxResponse:    v.GetInt("backend.max_response"),
			ChatMaxContext: v.GetInt("backend.chat_max_context"),
			ChatMaxTokens:  v.GetInt("backend.chat_max_tokens"),
			AnthropicModel: v.GetString("backend.anthropic_model"),
		},
		Provider: Provider{
			Kind:           ProviderKind(strings.ToLower(v.GetString("provider.kind"))),
			APIKey:         v.GetString("provider.api_key"),
			BaseURL:        v.GetString("provider.base_url"),
			Model:          v.GetString("provider.model"),
			MaxTokens:      v.GetInt("provider.max_tokens"),
			CountTokensAPI: v.GetBool("provider.count_tokens_api"),
		},
		Database: Database{
			URL:    v.GetString("database.url"),
			Driver: DriverKind(strings.ToLower(v.GetString("database.driver"))),

			EventRetention: v.GetDuration("database.event_retention"),
		},
	}

	switch cfg.Provider.Kind {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("%w: unknown provider kind %q", ErrInvalid, cfg.Provider.Kind)
	}
	switch cfg.Database.Driver {
	case DriverPgx, DriverDatabaseSQL:
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", ErrInvalid, cfg.Database.Driver)
	}
	if cfg.Database.EventRetention < 0 {
		return nil, fmt.Errorf("%w: database.event_retention must be non-negative, got %s", ErrInvalid, cfg.Database.EventRetention)
	}
	if cfg.Provider.MaxTokens < 0 {
		return nil, fmt.Errorf("%w: provider.max_tokens must be non-negative, got %d", ErrInvalid, cfg.Provider.MaxTokens)
	}

	return cfg, nil
}
