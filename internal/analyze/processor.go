package analyze

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mailmind-app/mailmind/internal/oracle"
	"github.com/mailmind-app/mailmind/internal/store"
)

// Stage names for the per-email state machine. A stage appearing in
// Result.Degraded means its fallback was taken.
type Stage string

const (
	StagePending         Stage = "pending"
	StageNormalizing     Stage = "normalizing"
	StageSummarizing     Stage = "summarizing"
	StageToneDetecting   Stage = "tone_detecting"
	StageCategorizing    Stage = "categorizing"
	StageReplyGenerating Stage = "reply_generating"
	StageAssembled       Stage = "assembled"
)

const (
	summaryMaxLen   = 120
	summaryMinLen   = 30
	summaryInputMax = 3000
	// Don't spend a model call on text this short; the truncation fallback
	// is already an adequate summary.
	summaryMinWords = 30
	toneInputMax    = 512
)

// Result is the complete analysis of one email. It is always fully formed:
// a stage failure substitutes that stage's fallback, never a partial record.
type Result struct {
	Summary    string
	Tone       Tone
	Confidence float64
	Categories []string
	SmartReply string
	Degraded   []Stage
}

// Processor runs the per-email analysis state machine.
type Processor struct {
	oracles  oracle.Set
	settings store.Settings
	rules    []store.Rule
	reply    *ReplySynthesizer
	log      zerolog.Logger
}

// NewProcessor wires a processor over the oracle set and configuration.
func NewProcessor(oracles oracle.Set, settings store.Settings, rules []store.Rule, log zerolog.Logger) *Processor {
	return &Processor{
		oracles:  oracles,
		settings: settings,
		rules:    rules,
		reply:    NewReplySynthesizer(oracles.Generator, log),
		log:      log,
	}
}

// Process analyzes one email. It never fails: any stage failure degrades to
// that stage's fallback and a failure before normalization short-circuits to
// the minimal safe result.
func (p *Processor) Process(ctx context.Context, e *store.Email) (res Result) {
	if e == nil {
		return minimalResult("")
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("email", e.ID).
				Msg("processing aborted, returning safe result")
			res = minimalResult(e.Snippet)
		}
	}()

	text := p.prepareText(e)

	res.Summary = p.summarize(ctx, e.ID, text, &res)
	res.Tone, res.Confidence = p.detectTone(ctx, e.ID, text, &res)
	res.Categories = p.categorize(e, &res)

	if p.settings.SmartReplyGeneration {
		reply, degraded := p.reply.Synthesize(ctx, e.Subject, e.Body, e.Snippet)
		res.SmartReply = reply
		if degraded {
			res.Degraded = append(res.Degraded, StageReplyGenerating)
		}
	}

	res.Confidence = round2(res.Confidence)
	return res
}

// prepareText builds the summarization input: subject plus the normalized
// body, or the normalized snippet when the body is HTML or empty. Capped so
// oversized emails don't blow up the summarizer.
func (p *Processor) prepareText(e *store.Email) string {
	var plain string
	if IsMarkup(e.Body) {
		p.log.Debug().Str("email", e.ID).Msg("markup detected, summarizing from snippet")
		plain = Normalize(e.Snippet)
	} else if e.Body != "" {
		plain = Normalize(e.Body)
	} else {
		plain = Normalize(e.Snippet)
	}
	return truncate("Subject: "+e.Subject+"\n\n"+plain, summaryInputMax)
}

func (p *Processor) summarize(ctx context.Context, id, text string, res *Result) string {
	if !p.settings.EmailSummarization || len(strings.Fields(text)) <= summaryMinWords {
		return truncate(text, summaryMaxLen)
	}
	summary, err := p.oracles.Summarizer.Summarize(ctx, text, summaryMaxLen, summaryMinLen)
	if err != nil {
		p.log.Warn().Err(err).Str("email", id).Msg("summarization failed, truncating input")
		res.Degraded = append(res.Degraded, StageSummarizing)
		return truncate(text, summaryMaxLen)
	}
	return summary
}

// detectTone always runs on the prepared text, not on the summary: tone is a
// property of the email's content, and this keeps it independent of
// summarization failures.
func (p *Processor) detectTone(ctx context.Context, id, text string, res *Result) (Tone, float64) {
	toneText := truncate(text, toneInputMax)
	ext, err := p.oracles.Classifier.Classify(ctx, toneText)
	if err != nil {
		p.log.Warn().Err(err).Str("email", id).Msg("tone detection failed, defaulting to neutral")
		res.Degraded = append(res.Degraded, StageToneDetecting)
		return ToneNeutral, 0.5
	}
	return ScoreTone(toneText, ext)
}

func (p *Processor) categorize(e *store.Email, res *Result) []string {
	matches := MatchCategories(e.Subject, e.Body, e.Snippet, p.rules)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Category
		p.log.Debug().Str("email", e.ID).Str("category", m.Category).
			Int("score", m.Score).Strs("keywords", m.Keywords).Msg("category matched")
	}
	return names
}

// minimalResult is the safe default when processing cannot even start.
func minimalResult(snippet string) Result {
	return Result{
		Summary:    truncate(Normalize(snippet), summaryMaxLen),
		Tone:       ToneNeutral,
		Confidence: 0.0,
		Degraded:   []Stage{StageNormalizing},
	}
}
