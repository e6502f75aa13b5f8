package settings

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
)

// EventSettingsChanged is published after UpdateConfiguration stores values.
const EventSettingsChanged = "SETTINGS_CHANGED"

// Service reads and writes the user managed configuration.
type Service struct {
	repo   *Repository
	events domain.EventPublisher
	log    zerolog.Logger
}

// NewService creates a new settings service. events may be nil.
func NewService(repo *Repository, events domain.EventPublisher, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: events,
		log:    log.With().Str("service", "settings").Logger(),
	}
}

// GetConfiguration returns the stored configuration.
func (s *Service) GetConfiguration() (AppConfiguration, error) {
	entries, err := s.repo.GetAll()
	if err != nil {
		return AppConfiguration{}, err
	}

	lookup := func(key string) *string {
		if v, ok := entries[key]; ok {
			return &v
		}
		return nil
	}
	return AppConfiguration{
		APIKey:    lookup(KeyAPIKey),
		UserID:    lookup(KeyUserID),
		AccountID: lookup(KeyAccountID),
	}, nil
}

// UpdateConfiguration persists the allowed keys of update and returns the
// resulting configuration. Unknown keys are rejected before anything is
// written; nil values are ignored.
func (s *Service) UpdateConfiguration(update SettingsUpdate) (AppConfiguration, error) {
	var unknown []string
	values := make(map[string]string)
	for key, value := range update {
		if !slices.Contains(AllowedKeys, key) {
			unknown = append(unknown, key)
			continue
		}
		if value != nil {
			values[key] = strings.TrimSpace(*value)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return AppConfiguration{}, &domain.ValidationError{
			Field:   strings.Join(unknown, ","),
			Message: fmt.Sprintf("unsupported setting, allowed: %s", strings.Join(AllowedKeys, ", ")),
		}
	}

	if len(values) > 0 {
		if err := s.repo.SetMany(values); err != nil {
			return AppConfiguration{}, err
		}

		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s.log.Info().Strs("keys", keys).Msg("Configuration updated")

		if s.events != nil {
			s.events.Publish(EventSettingsChanged, map[string]any{"keys": keys})
		}
	}

	return s.GetConfiguration()
}
