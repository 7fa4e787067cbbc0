package analyze

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mailmind-app/mailmind/internal/oracle"
	"github.com/mailmind-app/mailmind/internal/store"
)

func TestMergeLabels(t *testing.T) {
	ruleNames := map[string]struct{}{"work": {}, "bills": {}}

	tests := []struct {
		name     string
		existing []string
		fresh    []string
		want     []string
	}{
		{
			name:     "stale rule labels replaced, user labels kept",
			existing: []string{"vip", "work"},
			fresh:    []string{"bills"},
			want:     []string{"vip", "bills"},
		},
		{
			name:     "rule label removal is case-insensitive",
			existing: []string{"VIP", "Work"},
			fresh:    []string{"work"},
			want:     []string{"VIP", "work"},
		},
		{
			name:     "no fresh categories clears old rule labels",
			existing: []string{"work", "bills", "starred"},
			fresh:    nil,
			want:     []string{"starred"},
		},
		{
			name:     "duplicates collapsed",
			existing: []string{"vip", "vip"},
			fresh:    []string{"bills", "bills"},
			want:     []string{"vip", "bills"},
		},
		{
			name:     "empty everything",
			existing: nil,
			fresh:    nil,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeLabels(tt.existing, tt.fresh, ruleNames)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func newTestRunner(t *testing.T, db *store.Database) (*Runner, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.json")

	sum := &stubSummarizer{out: "A concise summary."}
	cls := &stubClassifier{res: oracle.ToneResult{Label: "NEUTRAL", Score: 0.6}}
	gen := &stubGenerator{out: "Thanks, noted."}

	settings := store.DefaultSettings()
	rules := store.DefaultRules()
	proc := NewProcessor(stubOracles(sum, cls, gen), settings, rules.Rules, zerolog.Nop())
	return NewRunner(db, path, proc, settings, rules, nil, zerolog.Nop()), path
}

func TestRunProcessesNewEmails(t *testing.T) {
	db := &store.Database{Emails: []*store.Email{
		{
			ID:       "1",
			Subject:  "Meeting Reminder",
			Body:     "Don't forget the project meeting tomorrow at 10am. The deadline for the report is Friday. " + longBody,
			Snippet:  "Don't forget the project meeting tomorrow at 10am.",
			Labels:   []string{"inbox"},
			NewEmail: true,
		},
		{
			ID:        "2",
			Subject:   "Already done",
			AISummary: &store.AISummary{Summary: "old", Tone: "Neutral", Confidence: 0.5},
		},
	}}
	runner, path := newTestRunner(t, db)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.Processed != 1 || stats.Skipped != 1 {
		t.Errorf("got %d processed / %d skipped, want 1 / 1", stats.Processed, stats.Skipped)
	}

	e := db.Emails[0]
	if e.AISummary == nil {
		t.Fatal("aiSummary not attached")
	}
	if e.AISummary.Summary != "A concise summary." {
		t.Errorf("got summary %q, want the oracle output", e.AISummary.Summary)
	}
	if e.NewEmail {
		t.Error("new_email flag not cleared")
	}
	if e.Status != store.StatusAnalyzed {
		t.Errorf("got status %q, want %q", e.Status, store.StatusAnalyzed)
	}
	if e.SmartReply != "Thanks, noted." {
		t.Errorf("got reply %q, want the oracle output", e.SmartReply)
	}
	// "meeting" in subject and body plus "project"/"deadline"/"report" hits.
	if !reflect.DeepEqual(e.Labels, []string{"inbox", "work"}) {
		t.Errorf("got labels %v, want [inbox work]", e.Labels)
	}

	// The untouched email keeps its old analysis.
	if db.Emails[1].AISummary.Summary != "old" {
		t.Error("skipped email was modified")
	}

	// The run persisted the store.
	saved, err := store.Load(path)
	if err != nil {
		t.Fatalf("failed to reload saved store: %v", err)
	}
	if saved.Emails[0].AISummary == nil || saved.Emails[0].NewEmail {
		t.Error("saved store does not reflect the processed state")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := &store.Database{Emails: []*store.Email{
		{ID: "1", Subject: "Hello", Body: "Just saying hi.", NewEmail: true},
	}}
	runner, path := newTestRunner(t, db)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// A second run over the saved store must not touch anything.
	reloaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("failed to reload store: %v", err)
	}
	runner2, _ := newTestRunner(t, reloaded)
	stats, err := runner2.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if stats.Processed != 0 || stats.Skipped != 1 {
		t.Errorf("got %d processed / %d skipped, want 0 / 1", stats.Processed, stats.Skipped)
	}
}

func TestRunReflaggedEmailReprocessed(t *testing.T) {
	db := &store.Database{Emails: []*store.Email{
		{
			ID:        "1",
			Subject:   "Edited draft",
			Body:      "Updated content.",
			NewEmail:  true,
			AISummary: &store.AISummary{Summary: "stale", Tone: "Neutral", Confidence: 0.5},
		},
	}}
	runner, _ := newTestRunner(t, db)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.Processed != 1 {
		t.Errorf("got %d processed, want re-flagged email reprocessed", stats.Processed)
	}
	if db.Emails[0].AISummary.Summary == "stale" {
		t.Error("stale analysis not replaced")
	}
}

func TestRunCategorizationDisabledKeepsLabels(t *testing.T) {
	db := &store.Database{Emails: []*store.Email{
		{
			ID:       "1",
			Subject:  "Invoice #7",
			Body:     "Your invoice and payment details are attached.",
			Labels:   []string{"inbox", "bills"},
			NewEmail: true,
		},
	}}
	path := filepath.Join(t.TempDir(), "database.json")

	sum := &stubSummarizer{out: "summary"}
	cls := &stubClassifier{res: oracle.ToneResult{Label: "NEUTRAL", Score: 0.6}}
	gen := &stubGenerator{out: "ok"}

	settings := store.DefaultSettings()
	settings.AIAutoCategorization = false
	rules := store.DefaultRules()
	proc := NewProcessor(stubOracles(sum, cls, gen), settings, rules.Rules, zerolog.Nop())
	runner := NewRunner(db, path, proc, settings, rules, nil, zerolog.Nop())

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !reflect.DeepEqual(db.Emails[0].Labels, []string{"inbox", "bills"}) {
		t.Errorf("got labels %v, want them untouched", db.Emails[0].Labels)
	}
}

type fakeJournal struct {
	started  int
	finished int
	results  []string
	fail     bool
}

func (f *fakeJournal) StartRun(started time.Time) (int64, error) {
	if f.fail {
		return 0, context.DeadlineExceeded
	}
	f.started++
	return 7, nil
}

func (f *fakeJournal) RecordResult(runID int64, emailID, subject, tone string, confidence float64, categories, degraded []string) error {
	f.results = append(f.results, emailID)
	return nil
}

func (f *fakeJournal) FinishRun(runID int64, finished time.Time, processed, skipped, degraded int) error {
	f.finished++
	return nil
}

func TestRunJournalsResults(t *testing.T) {
	db := &store.Database{Emails: []*store.Email{
		{ID: "a", Subject: "One", Body: "first", NewEmail: true},
		{ID: "b", Subject: "Two", Body: "second", NewEmail: true},
		{ID: "c", Subject: "Done", AISummary: &store.AISummary{Summary: "old"}},
	}}
	path := filepath.Join(t.TempDir(), "database.json")

	sum := &stubSummarizer{out: "summary"}
	cls := &stubClassifier{res: oracle.ToneResult{Label: "NEUTRAL", Score: 0.6}}
	gen := &stubGenerator{out: "ok"}

	settings := store.DefaultSettings()
	rules := store.DefaultRules()
	proc := NewProcessor(stubOracles(sum, cls, gen), settings, rules.Rules, zerolog.Nop())

	journal := &fakeJournal{}
	runner := NewRunner(db, path, proc, settings, rules, journal, zerolog.Nop())

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if journal.started != 1 || journal.finished != 1 {
		t.Errorf("got %d starts / %d finishes, want 1 / 1", journal.started, journal.finished)
	}
	if !reflect.DeepEqual(journal.results, []string{"a", "b"}) {
		t.Errorf("got journaled emails %v, want [a b]", journal.results)
	}
}

func TestRunJournalFailureDoesNotFailRun(t *testing.T) {
	db := &store.Database{Emails: []*store.Email{
		{ID: "a", Subject: "One", Body: "first", NewEmail: true},
	}}
	path := filepath.Join(t.TempDir(), "database.json")

	sum := &stubSummarizer{out: "summary"}
	cls := &stubClassifier{res: oracle.ToneResult{Label: "NEUTRAL", Score: 0.6}}
	gen := &stubGenerator{out: "ok"}

	settings := store.DefaultSettings()
	rules := store.DefaultRules()
	proc := NewProcessor(stubOracles(sum, cls, gen), settings, rules.Rules, zerolog.Nop())

	runner := NewRunner(db, path, proc, settings, rules, &fakeJournal{fail: true}, zerolog.Nop())

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.Processed != 1 {
		t.Errorf("got %d processed, want 1", stats.Processed)
	}
}

func TestRunSavesEvenWhenNothingProcessed(t *testing.T) {
	db := &store.Database{Emails: []*store.Email{
		{ID: "1", Subject: "Done", AISummary: &store.AISummary{Summary: "old"}},
	}}
	runner, path := newTestRunner(t, db)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, err := store.Load(path); err != nil {
		t.Errorf("store not written: %v", err)
	}
}
