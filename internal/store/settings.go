package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings are the AI feature toggles. Anything not present in the file is
// enabled: a missing file, a missing key, and a fresh install all behave the
// same.
type Settings struct {
	EmailSummarization   bool `json:"emailSummarization"`
	AIAutoCategorization bool `json:"aiAutoCategorization"`
	SmartReplyGeneration bool `json:"smartReplyGeneration"`
}

// DefaultSettings has every feature enabled.
func DefaultSettings() Settings {
	return Settings{
		EmailSummarization:   true,
		AIAutoCategorization: true,
		SmartReplyGeneration: true,
	}
}

// LoadSettings reads the settings file. Failures are degraded, not fatal: the
// defaults are returned along with the error so the caller can log and
// continue.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	// Unmarshal over the defaults so absent keys stay enabled.
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// Save writes the settings file, pretty-printed.
func (s Settings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
