package analyze

import (
	"testing"

	"github.com/mailmind-app/mailmind/internal/oracle"
)

func TestScoreToneLabels(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		ext      oracle.ToneResult
		expected Tone
	}{
		{
			name:     "positive model confirmed by positive words",
			text:     "Thank you, this is excellent work",
			ext:      oracle.ToneResult{Label: "POSITIVE", Score: 0.9},
			expected: TonePositive,
		},
		{
			name:     "negative model confirmed by negative words",
			text:     "This is terrible, I am frustrated with the delay",
			ext:      oracle.ToneResult{Label: "NEGATIVE", Score: 0.8},
			expected: ToneNegative,
		},
		{
			name:     "neutral model overridden by strong positive lexicon",
			text:     "thank you for the wonderful and amazing gift",
			ext:      oracle.ToneResult{Label: "NEUTRAL", Score: 0.6},
			expected: TonePositive,
		},
		{
			name:     "positive model overridden by overwhelming negative lexicon",
			text:     "awful broken useless failure",
			ext:      oracle.ToneResult{Label: "POSITIVE", Score: 0.9},
			expected: ToneNegative,
		},
		{
			name:     "urgency with a negative signal reads negative",
			text:     "urgent: please respond soon about the problem",
			ext:      oracle.ToneResult{Label: "NEUTRAL", Score: 0.6},
			expected: ToneNegative,
		},
		{
			name:     "urgency alone stays neutral",
			text:     "urgent meeting reminder",
			ext:      oracle.ToneResult{Label: "NEUTRAL", Score: 0.6},
			expected: ToneNeutral,
		},
		{
			name:     "formal notice stays neutral",
			text:     "dear sir, please find attached the meeting schedule and status report, regards",
			ext:      oracle.ToneResult{Label: "NEUTRAL", Score: 0.6},
			expected: ToneNeutral,
		},
		{
			name:     "lowercase model label still counts",
			text:     "Thank you, this is excellent work",
			ext:      oracle.ToneResult{Label: "positive", Score: 0.9},
			expected: TonePositive,
		},
		{
			name:     "no signal at all",
			text:     "hello there",
			ext:      oracle.ToneResult{},
			expected: ToneNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tone, conf := ScoreTone(tt.text, tt.ext)
			if tone != tt.expected {
				t.Errorf("got %s, want %s (confidence: %.2f)", tone, tt.expected, conf)
			}
			if conf < 0 || conf > 0.99 {
				t.Errorf("confidence %.2f out of range [0, 0.99]", conf)
			}
		})
	}
}

func TestScoreToneEmptyText(t *testing.T) {
	tone, conf := ScoreTone("", oracle.ToneResult{Label: "POSITIVE", Score: 0.95})
	if tone != ToneNeutral {
		t.Errorf("got %s, want %s", tone, ToneNeutral)
	}
	if conf != 0.5 {
		t.Errorf("got confidence %.2f, want 0.50", conf)
	}
}

func TestScoreToneConfidenceCap(t *testing.T) {
	// Enough strong positives to push the heuristic confidence past 1.0.
	text := "excellent outstanding amazing fantastic incredible wonderful brilliant delighted thrilled success"
	tone, conf := ScoreTone(text, oracle.ToneResult{Label: "POSITIVE", Score: 1.0})
	if tone != TonePositive {
		t.Errorf("got %s, want %s", tone, TonePositive)
	}
	if conf != 0.99 {
		t.Errorf("got confidence %v, want cap 0.99", conf)
	}
}

func TestScoreToneDefaultModelConfidence(t *testing.T) {
	// A zero model score is treated as 0.5, not as certainty of failure.
	_, conf := ScoreTone("hello there", oracle.ToneResult{Label: "NEUTRAL"})
	if conf != 0.5 {
		t.Errorf("got confidence %v, want 0.50", conf)
	}
}
