// Package appconfig holds the admin-mutable runtime configuration: mock mode
// and the upstream generator credentials. It replaces an older pattern of a
// bare global map mutated from scattered call sites; all reads and writes go
// through typed accessors on a single store initialized at startup.
package appconfig

import (
	"sync"

	"github.com/sitirukayah12-del/sora2-demo/pkg/config"
)

// Settings is a snapshot of the runtime configuration.
type Settings struct {
	MockMode     bool   `json:"mock_mode"`
	SoraAPIKey   string `json:"sora_api_key"`
	SoraAPIURL   string `json:"sora_api_url"`
	VeoAPIKey    string `json:"veo_api_key"`
	SunoAPIKey   string `json:"suno_api_key"`
	HeygemAPIKey string `json:"heygem_api_key"`
}

// Redacted returns a copy safe for the admin config read endpoint, with key
// material reduced to a set/unset marker.
func (s Settings) Redacted() map[string]interface{} {
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return "(set)"
	}
	return map[string]interface{}{
		"mock_mode":      s.MockMode,
		"sora_api_key":   mask(s.SoraAPIKey),
		"sora_api_url":   s.SoraAPIURL,
		"veo_api_key":    mask(s.VeoAPIKey),
		"suno_api_key":   mask(s.SunoAPIKey),
		"heygem_api_key": mask(s.HeygemAPIKey),
	}
}

// Store is the process-wide configuration store.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

// Load initializes the store from the environment. Called once at startup;
// later mutations come only through the admin surface.
func Load() *Store {
	return &Store{
		settings: Settings{
			MockMode:     config.GetEnvBool("MOCK_MODE", true),
			SoraAPIKey:   config.GetEnv("SORA_API_KEY", ""),
			SoraAPIURL:   config.GetEnv("SORA_API_URL", ""),
			VeoAPIKey:    config.GetEnv("VEO_API_KEY", ""),
			SunoAPIKey:   config.GetEnv("SUNO_API_KEY", ""),
			HeygemAPIKey: config.GetEnv("HEYGEM_API_KEY", ""),
		},
	}
}

// Snapshot returns the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the settings wholesale. Admin surface only.
func (s *Store) Update(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// MockMode reports whether generation runs against mock collaborators.
func (s *Store) MockMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.MockMode
}
