package clients

import (
	"fmt"
	"sort"
)

// BackendProfile names a deployment of the league backend
type BackendProfile string

const (
	// BackendProfileLocal is a backend running on the developer machine
	BackendProfileLocal BackendProfile = "local"

	// BackendProfileLAN is a backend served from a machine on the home network
	BackendProfileLAN BackendProfile = "lan"

	// BackendProfileProduction is the hosted backend, which sleeps when idle
	BackendProfileProduction BackendProfile = "production"
)

// BackendProfileConfig describes one backend deployment
type BackendProfileConfig struct {
	Profile     BackendProfile `json:"profile" yaml:"profile"`
	BaseURL     string         `json:"base_url" yaml:"base_url"`
	Description string         `json:"description" yaml:"description"`
	// Sleeps marks deployments that cold-start and need the wake cycle
	Sleeps bool `json:"sleeps" yaml:"sleeps"`
}

// GetBackendProfiles returns the built-in backend deployments
func GetBackendProfiles() map[BackendProfile]BackendProfileConfig {
	return map[BackendProfile]BackendProfileConfig{
		BackendProfileLocal: {
			Profile:     BackendProfileLocal,
			BaseURL:     "http://127.0.0.1:8000",
			Description: "Local development backend",
		},
		BackendProfileLAN: {
			Profile:     BackendProfileLAN,
			BaseURL:     "http://192.168.86.64:8000",
			Description: "Backend on the home network",
		},
		BackendProfileProduction: {
			Profile:     BackendProfileProduction,
			BaseURL:     "https://road2royalty-backend.onrender.com",
			Description: "Hosted backend",
			Sleeps:      true,
		},
	}
}

// ValidateBackendProfile checks if the profile is known
func ValidateBackendProfile(profile BackendProfile) bool {
	_, exists := GetBackendProfiles()[profile]
	return exists
}

// ResolveBackend picks the profile config, letting overrides replace the
// built-in base URLs.
func ResolveBackend(profile BackendProfile, overrides map[BackendProfile]string) (BackendProfileConfig, error) {
	cfg, exists := GetBackendProfiles()[profile]
	if !exists {
		return BackendProfileConfig{}, fmt.Errorf("unknown backend profile %q (known: %v)", profile, knownProfiles())
	}
	if url := overrides[profile]; url != "" {
		cfg.BaseURL = url
	}
	return cfg, nil
}

func knownProfiles() []string {
	var names []string
	for profile := range GetBackendProfiles() {
		names = append(names, string(profile))
	}
	sort.Strings(names)
	return names
}
