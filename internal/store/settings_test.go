package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "AI_settings.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Settings
	}{
		{
			name:    "all keys present",
			content: `{"emailSummarization": false, "aiAutoCategorization": true, "smartReplyGeneration": false}`,
			want:    Settings{EmailSummarization: false, AIAutoCategorization: true, SmartReplyGeneration: false},
		},
		{
			name:    "absent keys stay enabled",
			content: `{"emailSummarization": false}`,
			want:    Settings{EmailSummarization: false, AIAutoCategorization: true, SmartReplyGeneration: true},
		},
		{
			name:    "empty object keeps defaults",
			content: `{}`,
			want:    DefaultSettings(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadSettings(writeFile(t, tt.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	got, err := LoadSettings(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("want an error for a missing file")
	}
	if got != DefaultSettings() {
		t.Errorf("got %+v, want the defaults", got)
	}
}

func TestLoadSettingsUnparseable(t *testing.T) {
	got, err := LoadSettings(writeFile(t, "{not json"))
	if err == nil {
		t.Error("want an error for unparseable settings")
	}
	if got != DefaultSettings() {
		t.Errorf("got %+v, want the defaults", got)
	}
}

func TestSettingsSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AI_settings.json")
	s := Settings{EmailSummarization: true, AIAutoCategorization: false, SmartReplyGeneration: true}
	if err := s.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != s {
		t.Errorf("got %+v, want %+v", got, s)
	}
}
