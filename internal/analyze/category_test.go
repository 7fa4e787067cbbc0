package analyze

import (
	"reflect"
	"testing"

	"github.com/mailmind-app/mailmind/internal/store"
)

func TestMatchCategoriesFieldWeights(t *testing.T) {
	rules := []store.Rule{
		{Category: "Bills", Keywords: []string{"invoice"}},
	}

	tests := []struct {
		name    string
		subject string
		body    string
		snippet string
		want    int // expected score, 0 means no match
	}{
		{
			name:    "subject hit alone clears threshold",
			subject: "Your invoice is ready",
			want:    3,
		},
		{
			name: "body hit alone clears threshold",
			body: "The invoice is attached.",
			want: 2,
		},
		{
			name:    "snippet hit alone stays below threshold",
			snippet: "The invoice is attached.",
			want:    0,
		},
		{
			name:    "hits accumulate across fields",
			subject: "Invoice #42",
			body:    "Your invoice for March.",
			snippet: "Your invoice for March.",
			want:    6,
		},
		{
			name: "repeated hits in one field accumulate",
			body: "invoice one, invoice two",
			want: 4,
		},
		{
			name: "substring inside a word does not count",
			body: "we reinvoiced the client",
			want: 0,
		},
		{
			name: "match is case-insensitive",
			body: "INVOICE enclosed",
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := MatchCategories(tt.subject, tt.body, tt.snippet, rules)
			if tt.want == 0 {
				if len(matches) != 0 {
					t.Fatalf("got %d matches, want none", len(matches))
				}
				return
			}
			if len(matches) != 1 {
				t.Fatalf("got %d matches, want 1", len(matches))
			}
			if matches[0].Category != "bills" {
				t.Errorf("got category %q, want %q", matches[0].Category, "bills")
			}
			if matches[0].Score != tt.want {
				t.Errorf("got score %d, want %d", matches[0].Score, tt.want)
			}
		})
	}
}

func TestMatchCategoriesKeywordRecordedOnce(t *testing.T) {
	rules := []store.Rule{
		{Category: "Work", Keywords: []string{"meeting"}},
	}
	matches := MatchCategories("Team meeting", "The meeting is at 3pm.", "The meeting is at 3pm.", rules)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if !reflect.DeepEqual(matches[0].Keywords, []string{"meeting"}) {
		t.Errorf("got keywords %v, want keyword listed once", matches[0].Keywords)
	}
}

func TestMatchCategoriesRulesIndependent(t *testing.T) {
	rules := []store.Rule{
		{Category: "Work", Keywords: []string{"meeting", "deadline"}},
		{Category: "Bills", Keywords: []string{"invoice", "payment"}},
		{Category: "Shopping", Keywords: []string{"order"}},
	}
	got := Categorize("Invoice for project meeting", "Payment is due before the deadline.", "", rules)
	want := []string{"work", "bills"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v in rule order", got, want)
	}
}

func TestMatchCategoriesMalformedRules(t *testing.T) {
	rules := []store.Rule{
		{Category: "", Keywords: []string{"meeting"}},
		{Category: "Empty", Keywords: nil},
		{Category: "Work", Keywords: []string{"", "  ", "meeting"}},
	}
	matches := MatchCategories("Team meeting", "meeting notes", "", rules)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want only the well-formed rule", len(matches))
	}
	if matches[0].Category != "work" {
		t.Errorf("got category %q, want %q", matches[0].Category, "work")
	}
}

func TestMatchCategoriesNilRules(t *testing.T) {
	if got := Categorize("Invoice", "invoice invoice", "invoice", nil); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestMatchCategoriesNormalizesFields(t *testing.T) {
	rules := []store.Rule{
		{Category: "Bills", Keywords: []string{"invoice"}},
	}
	matches := MatchCategories("", "<p>Your <b>invoice</b> is attached.</p>", "", rules)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1 after markup stripping", len(matches))
	}
	if matches[0].Score != 2 {
		t.Errorf("got score %d, want 2", matches[0].Score)
	}
}
