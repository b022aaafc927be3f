package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

// SettingsService serves the AppSettings singleton from a write-through cache.
type SettingsService struct {
	repo ports.SettingsRepository

	mu     sync.RWMutex
	cached *entities.AppSettings
}

func NewSettingsService(repo ports.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the current settings, storing the defaults on first use.
// Callers receive a copy they may modify.
func (s *SettingsService) Get(ctx context.Context) (*entities.AppSettings, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		return copySettings(cached), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return copySettings(s.cached), nil
	}

	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		settings = entities.DefaultAppSettings()
		if err := s.repo.Save(ctx, settings); err != nil {
			return nil, fmt.Errorf("failed to store default settings: %w", err)
		}
	}
	s.cached = settings
	return copySettings(settings), nil
}

// Features is a shortcut used by the gates.
func (s *SettingsService) Features(ctx context.Context) (entities.FeatureSettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return entities.FeatureSettings{}, err
	}
	return settings.Features, nil
}

func (s *SettingsService) Public(ctx context.Context) (entities.PublicSettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return entities.PublicSettings{}, err
	}
	return settings.Public(), nil
}

// Save persists settings and refreshes the cache.
func (s *SettingsService) Save(ctx context.Context, settings *entities.AppSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.cached = copySettings(settings)
	return nil
}

func copySettings(in *entities.AppSettings) *entities.AppSettings {
	out := *in
	out.Features.AllowedFileTypes = append([]string(nil), in.Features.AllowedFileTypes...)
	return &out
}
