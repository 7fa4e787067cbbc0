package analyze

import (
	"math"
	"strings"

	"github.com/mailmind-app/mailmind/internal/oracle"
)

// Tone is the coarse sentiment of an email.
type Tone string

const (
	TonePositive Tone = "Positive"
	ToneNegative Tone = "Negative"
	ToneNeutral  Tone = "Neutral"
)

// Lexical signal sets for tone detection. Presence is substring containment
// over the lowercased input, so phrases like "well done" count too.
var (
	strongPositive = []string{
		"excellent", "outstanding", "amazing", "fantastic", "incredible",
		"wonderful", "brilliant", "delighted", "thrilled", "ecstatic", "success",
		"accomplished", "grateful", "appreciated", "congratulations", "congrats",
		"pleased", "proud", "love", "adore", "satisfied", "impressive",
	}

	mildPositive = []string{
		"thank", "thanks", "good", "great", "nice", "well", "fine", "better",
		"okay", "pleasure", "cheers", "best", "appreciate", "helpful", "positive",
	}

	strongNegative = []string{
		"angry", "furious", "terrible", "horrible", "awful", "frustrated",
		"disappointed", "upset", "devastated", "hate", "disgusted", "bad",
		"worst", "incompetent", "mistake", "error", "failed", "failure",
		"unacceptable", "useless", "broken", "problematic",
	}

	mildNegative = []string{
		"sorry", "apologize", "issue", "concern", "delay", "problem", "regret",
		"cannot", "won't", "unable", "inconvenience", "unfortunately",
		"trouble", "complaint", "uncertain", "confused", "waiting", "pending",
	}

	neutralIndicators = []string{
		"update", "information", "notice", "reminder", "fyi", "meeting",
		"schedule", "policy", "terms", "review", "confirm", "confirmation",
		"details", "reference", "attachment", "response", "report", "status",
	}

	formalIndicators = []string{
		"dear", "sincerely", "regards", "faithfully", "please find",
		"attached", "enclosed", "document", "submission", "application",
	}

	urgencyIndicators = []string{
		"urgent", "immediately", "asap", "important", "critical",
		"deadline", "priority", "action required", "respond soon",
	}

	motivationalPositive = []string{
		"keep going", "well done", "great job", "good work",
		"you can do it", "don't give up", "proud of you", "congrats again",
	}
)

// ScoreTone combines the external sentiment classification with the lexical
// signals into a final tone and confidence. Confidence is the average of the
// heuristic confidence and the model confidence, capped at 0.99 and rounded
// to two decimals. Empty text is Neutral at 0.5 without consulting the
// external result.
func ScoreTone(text string, ext oracle.ToneResult) (Tone, float64) {
	if text == "" {
		return ToneNeutral, 0.5
	}

	lower := strings.ToLower(text)
	countWeighted := func(words []string, weight float64) float64 {
		var total float64
		for _, w := range words {
			if strings.Contains(lower, w) {
				total += weight
			}
		}
		return total
	}

	posScore := countWeighted(strongPositive, 2.0) +
		countWeighted(mildPositive, 1.0) +
		countWeighted(motivationalPositive, 1.5)
	negScore := countWeighted(strongNegative, 2.0) +
		countWeighted(mildNegative, 1.0)
	neutralScore := countWeighted(neutralIndicators, 0.5)
	urgencyScore := countWeighted(urgencyIndicators, 1.5)
	formalScore := countWeighted(formalIndicators, 0.5)

	label := strings.ToUpper(ext.Label)
	if label == "" {
		label = "NEUTRAL"
	}
	modelConf := ext.Score
	if modelConf == 0 {
		modelConf = 0.5
	}

	tone := ToneNeutral
	conf := 0.6

	switch {
	case label == "POSITIVE" && posScore > negScore:
		tone = TonePositive
		conf = 0.7 + posScore*0.03
	case label == "NEGATIVE" && negScore > posScore:
		tone = ToneNegative
		conf = 0.7 + negScore*0.03
	case posScore > negScore+1:
		tone = TonePositive
		conf = 0.6 + posScore*0.02
	case negScore > posScore+1:
		tone = ToneNegative
		conf = 0.6 + negScore*0.02
	case urgencyScore > 0:
		if negScore > 0 {
			tone = ToneNegative
		}
		conf = 0.65 + urgencyScore*0.05
	case formalScore > 1 && neutralScore > 1:
		conf = 0.7
	default:
		conf = 0.5 + math.Abs(posScore-negScore)*0.02
	}

	conf = math.Min(round2((conf+modelConf)/2), 0.99)
	return tone, conf
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
