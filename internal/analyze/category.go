package analyze

import (
	"regexp"
	"strings"

	"github.com/mailmind-app/mailmind/internal/store"
)

// Field weights for keyword occurrences and the acceptance threshold.
const (
	subjectWeight     = 3
	bodyWeight        = 2
	snippetWeight     = 1
	categoryThreshold = 2
)

// CategoryMatch is the scored outcome for one rule.
type CategoryMatch struct {
	Category string
	Score    int
	Keywords []string
}

// MatchCategories scores every rule against the three email fields. A
// keyword occurrence counts per field (subject x3, body x2, snippet x1,
// whole-word matches on normalized lowercase text); the keyword itself is
// recorded once no matter how many fields it hit. Rules are independent:
// every rule clearing the threshold is returned, in rule order. Malformed
// rules are skipped, a nil rule set yields nothing.
func MatchCategories(subject, body, snippet string, rules []store.Rule) []CategoryMatch {
	subjectText := strings.ToLower(Normalize(subject))
	bodyText := strings.ToLower(Normalize(body))
	snippetText := strings.ToLower(Normalize(snippet))

	var matches []CategoryMatch
	for _, rule := range rules {
		if rule.Category == "" || len(rule.Keywords) == 0 {
			continue
		}

		score := 0
		var matched []string
		for _, kw := range rule.Keywords {
			kwLower := strings.ToLower(strings.TrimSpace(kw))
			if kwLower == "" {
				continue
			}
			pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(kwLower) + `\b`)
			if err != nil {
				continue
			}

			subjectHits := len(pattern.FindAllStringIndex(subjectText, -1))
			bodyHits := len(pattern.FindAllStringIndex(bodyText, -1))
			snippetHits := len(pattern.FindAllStringIndex(snippetText, -1))

			score += subjectHits*subjectWeight + bodyHits*bodyWeight + snippetHits*snippetWeight
			if subjectHits+bodyHits+snippetHits > 0 {
				matched = append(matched, kw)
			}
		}

		if score >= categoryThreshold {
			matches = append(matches, CategoryMatch{
				Category: strings.ToLower(rule.Category),
				Score:    score,
				Keywords: matched,
			})
		}
	}
	return matches
}

// Categorize returns the lowercase names of all categories clearing the
// threshold.
func Categorize(subject, body, snippet string, rules []store.Rule) []string {
	matches := MatchCategories(subject, body, snippet, rules)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Category
	}
	return names
}
