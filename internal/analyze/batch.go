package analyze

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mailmind-app/mailmind/internal/store"
)

// Recorder journals batch runs. Implementations must tolerate being called
// once per processed email; journal failures are the caller's to absorb.
type Recorder interface {
	StartRun(started time.Time) (int64, error)
	RecordResult(runID int64, emailID, subject, tone string, confidence float64, categories, degraded []string) error
	FinishRun(runID int64, finished time.Time, processed, skipped, degraded int) error
}

// RunStats summarizes one batch pass.
type RunStats struct {
	Total     int
	Processed int
	Skipped   int
	Degraded  int
}

// Runner applies the processor to every unprocessed or re-flagged email in
// the store and persists the collection once at the end. One run, one
// writer: the runner owns the database for its duration.
type Runner struct {
	db        *store.Database
	storePath string
	proc      *Processor
	settings  store.Settings
	rules     *store.RuleSet
	journal   Recorder // optional
	log       zerolog.Logger
}

// NewRunner builds a batch runner. journal may be nil.
func NewRunner(db *store.Database, storePath string, proc *Processor, settings store.Settings, rules *store.RuleSet, journal Recorder, log zerolog.Logger) *Runner {
	return &Runner{
		db:        db,
		storePath: storePath,
		proc:      proc,
		settings:  settings,
		rules:     rules,
		journal:   journal,
		log:       log,
	}
}

// Run processes the collection sequentially and saves it back. Re-running
// over an already-processed store is a no-op: selection is new_email or a
// missing aiSummary, and new_email is cleared on every processed email so a
// transient failure cannot loop a record forever. Only the final persistence
// can fail.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	stats := RunStats{Total: len(r.db.Emails)}
	ruleNames := r.rules.CategoryNames()

	var runID int64
	if r.journal != nil {
		id, err := r.journal.StartRun(time.Now())
		if err != nil {
			r.log.Warn().Err(err).Msg("run journal unavailable")
			r.journal = nil
		} else {
			runID = id
		}
	}

	for i, e := range r.db.Emails {
		if !e.NeedsAnalysis() {
			stats.Skipped++
			r.log.Debug().Int("n", i+1).Int("of", stats.Total).Str("email", e.ID).
				Msg("already processed, skipping")
			continue
		}

		r.log.Info().Int("n", i+1).Int("of", stats.Total).
			Str("subject", truncate(e.Subject, 50)).Msg("processing email")

		res := r.proc.Process(ctx, e)

		e.AISummary = &store.AISummary{
			Summary:    res.Summary,
			Tone:       string(res.Tone),
			Confidence: res.Confidence,
		}
		if res.SmartReply != "" {
			e.SmartReply = res.SmartReply
		}
		if r.settings.AIAutoCategorization {
			e.Labels = mergeLabels(e.Labels, res.Categories, ruleNames)
		}
		e.NewEmail = false
		e.Status = store.StatusAnalyzed
		stats.Processed++
		if len(res.Degraded) > 0 {
			stats.Degraded++
		}

		if r.journal != nil {
			if err := r.journal.RecordResult(runID, e.ID, e.Subject, string(res.Tone),
				res.Confidence, res.Categories, stageNames(res.Degraded)); err != nil {
				r.log.Warn().Err(err).Str("email", e.ID).Msg("failed to journal result")
			}
		}
	}

	if r.journal != nil {
		if err := r.journal.FinishRun(runID, time.Now(), stats.Processed, stats.Skipped, stats.Degraded); err != nil {
			r.log.Warn().Err(err).Msg("failed to finish journal run")
		}
	}

	r.log.Info().Int("processed", stats.Processed).Int("skipped", stats.Skipped).
		Msg("batch pass complete, saving store")

	if err := r.db.Save(r.storePath); err != nil {
		return stats, err
	}
	return stats, nil
}

// mergeLabels replaces the AI-derived labels (those naming a known rule
// category, case-insensitive) with the fresh categories while preserving
// user-applied labels. Order: surviving labels first, then new categories.
func mergeLabels(existing, fresh []string, ruleNames map[string]struct{}) []string {
	merged := make([]string, 0, len(existing)+len(fresh))
	seen := make(map[string]struct{}, len(existing)+len(fresh))

	for _, l := range existing {
		key := strings.ToLower(l)
		if _, isAI := ruleNames[key]; isAI {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, l)
	}
	for _, c := range fresh {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		merged = append(merged, c)
	}
	return merged
}

func stageNames(stages []Stage) []string {
	if len(stages) == 0 {
		return nil
	}
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = string(s)
	}
	return names
}
