package analyze

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/mailmind-app/mailmind/internal/oracle"
)

// FallbackReply is returned whenever the generation oracle cannot produce a
// usable reply.
const FallbackReply = "Thank you for your email. I'll get back to you shortly."

const (
	replyContextMax = 300
	replyBodyMax    = 500
	replyMaxTokens  = 150
	replyMinTokens  = 20
)

const replyPrompt = "Write a polite and professional email reply to this message:\n\n" +
	"Subject: %s\nMessage: %s\n\nReply:"

// ReplySynthesizer wraps the reply generation oracle with prompt
// construction, context truncation, and the deterministic fallback.
type ReplySynthesizer struct {
	gen oracle.ReplyGenerator
	log zerolog.Logger
}

// NewReplySynthesizer creates a synthesizer over the given generator.
func NewReplySynthesizer(gen oracle.ReplyGenerator, log zerolog.Logger) *ReplySynthesizer {
	return &ReplySynthesizer{gen: gen, log: log}
}

// Synthesize produces a suggested reply. Generation failures are absorbed:
// the fixed fallback is returned and degraded is true.
func (r *ReplySynthesizer) Synthesize(ctx context.Context, subject, body, snippet string) (reply string, degraded bool) {
	text := Normalize(snippet)
	if body != "" && utf8.RuneCountInString(body) < replyBodyMax {
		text = Normalize(body)
	}
	text = truncate(text, replyContextMax)

	prompt := fmt.Sprintf(replyPrompt, subject, text)

	out, err := r.gen.Generate(ctx, prompt, replyMaxTokens, replyMinTokens)
	if err != nil {
		r.log.Warn().Err(err).Msg("smart reply generation failed, using fallback")
		return FallbackReply, true
	}
	return strings.TrimSpace(out), false
}
